// Package checkout は申し込みフローの状態機械とチェックアウトAPIクライアントを提供する。
package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/compasshq/lp-backend/internal/model"
)

// MetricsRecorder は申し込みリクエストのメトリクス記録のインターフェース。
type MetricsRecorder interface {
	RecordCheckout(result string)
	RecordUpstreamLatency(operation string, duration time.Duration)
}

// StartRequest はチェックアウト開始リクエストのボディ。
// tiered体系ではTier、seat体系ではQuantityのみを送る（もう一方は省略される）。
type StartRequest struct {
	Email    string     `json:"email"`
	Tier     model.Tier `json:"tier,omitempty"`
	Quantity int        `json:"quantity,omitempty"`
}

// startResponse はチェックアウトAPIの応答ボディ。
// 成功時はurl、失敗時はerrorが設定される。
type startResponse struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// Client はチェックアウトAPIのHTTPクライアント。
type Client struct {
	apiBaseURL string
	http       *http.Client
	maxBody    int64
	logger     *slog.Logger
	metrics    MetricsRecorder
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(apiBaseURL string, httpClient *http.Client, maxBody int64, logger *slog.Logger, metrics MetricsRecorder) *Client {
	return &Client{
		apiBaseURL: apiBaseURL,
		http:       httpClient,
		maxBody:    maxBody,
		logger:     logger,
		metrics:    metrics,
	}
}

// Start はチェックアウトを開始し、決済ページのリダイレクトURLを返す。
//
// 2xx応答でもurlフィールドが無ければ失敗として扱う。2xx以外の応答は
// ボディのerrorフィールド（無ければ汎用メッセージ）をそのままユーザー向け
// エラーにする。ネットワーク・パース失敗も汎用メッセージに落とす。
// ctxのキャンセルはそのまま伝播する。
func (c *Client) Start(ctx context.Context, req StartRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", model.NewCheckoutFailedError("")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBaseURL+"/api/public/checkout", bytes.NewReader(payload))
	if err != nil {
		return "", model.NewCheckoutFailedError("")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		c.logger.Error("チェックアウトリクエストに失敗しました",
			slog.String("error", err.Error()),
		)
		c.metrics.RecordCheckout("network_error")
		return "", model.NewCheckoutFailedError("")
	}
	defer resp.Body.Close()

	c.metrics.RecordUpstreamLatency("checkout", time.Since(start))

	var data startResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, c.maxBody)).Decode(&data); err != nil {
		c.logger.Error("チェックアウト応答の解析に失敗しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("error", err.Error()),
		)
		c.metrics.RecordCheckout("parse_error")
		return "", model.NewCheckoutFailedError("")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("チェックアウトが拒否されました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("upstream_error", data.Error),
		)
		c.metrics.RecordCheckout("upstream_error")
		return "", model.NewCheckoutFailedError(data.Error)
	}

	if data.URL == "" {
		c.logger.Error("チェックアウト応答にurlがありません",
			slog.Int("http_status", resp.StatusCode),
		)
		c.metrics.RecordCheckout("url_missing")
		return "", model.NewCheckoutURLMissingError()
	}

	c.metrics.RecordCheckout("redirect")
	return data.URL, nil
}

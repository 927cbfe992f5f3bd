// Package inquiry はEnterprise相談フォームの送信フローとAPIクライアントを提供する。
package inquiry

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

// MetricsRecorder はEnterprise相談送信のメトリクス記録のインターフェース。
type MetricsRecorder interface {
	RecordInquiry(result string)
	RecordUpstreamLatency(operation string, duration time.Duration)
}

// errorResponse は失敗応答のボディ。
type errorResponse struct {
	Error string `json:"error"`
}

// Client はEnterprise相談APIのHTTPクライアント。
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

// Submit は相談フォームの内容を送信する。
//
// 2xx応答のボディは読み捨てる（成功）。2xx以外の応答はボディのerrorフィールドを
// ユーザー向けエラーにし、ボディの解析自体に失敗した場合は汎用メッセージに落とす。
// ネットワーク障害は時間をおいた再試行を促すメッセージになる。
func (c *Client) Submit(ctx context.Context, form model.EnterpriseInquiry) error {
	payload, err := json.Marshal(form)
	if err != nil {
		return model.NewInquiryFailedError("")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBaseURL+"/api/public/enterprise-inquiry", bytes.NewReader(payload))
	if err != nil {
		return model.NewInquiryFailedError("")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Error("Enterprise相談の送信に失敗しました",
			slog.String("error", err.Error()),
		)
		c.metrics.RecordInquiry("network_error")
		return model.NewInquiryNetworkError()
	}
	defer resp.Body.Close()

	c.metrics.RecordUpstreamLatency("enterprise_inquiry", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var data errorResponse
		// 失敗ボディの解析失敗は汎用メッセージで続行する
		_ = json.NewDecoder(io.LimitReader(resp.Body, c.maxBody)).Decode(&data)

		c.logger.Warn("Enterprise相談が拒否されました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("upstream_error", data.Error),
		)
		c.metrics.RecordInquiry("upstream_error")
		return model.NewInquiryFailedError(data.Error)
	}

	c.metrics.RecordInquiry("submitted")
	return nil
}

package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/compasshq/lp-backend/internal/model"
)

// FetchWarning はプラン取得失敗時にUIへ表示する非ブロッキングの警告文。
const FetchWarning = "プラン情報の取得に失敗しました（表示は参考値です）"

// MetricsRecorder はプラン取得のメトリクス記録のインターフェース。
type MetricsRecorder interface {
	RecordPlanFetch(success bool)
	RecordUpstreamLatency(operation string, duration time.Duration)
}

// Store は現在のプランデータを保持する。
//
// 起動時にLoadで1回だけリモートのプラン設定を取得し、Normalizerを通して
// 状態を丸ごと置き換える。取得に失敗した場合はDefaultPlansを保持したまま
// degradedフラグと警告文を立てる。リトライ・バックオフ・キャッシュは行わない。
//
// 読み取りは複数箇所（料金表示・申し込みフロー）から行われるが、
// 書き込みはLoadの1回のみ。RWMutexで保護する。
type Store struct {
	apiBaseURL string
	client     *http.Client
	normalizer *Normalizer
	maxBody    int64
	logger     *slog.Logger
	metrics    MetricsRecorder

	mu       sync.RWMutex
	plans    model.CheckoutPlans
	degraded bool
	warning  string
}

// NewStore はStoreの新しいインスタンスを生成する。
// Loadが完了する（または失敗する）までは料金体系のDefaultPlansを返す。
func NewStore(
	apiBaseURL string,
	client *http.Client,
	normalizer *Normalizer,
	maxBody int64,
	logger *slog.Logger,
	metrics MetricsRecorder,
) *Store {
	return &Store{
		apiBaseURL: apiBaseURL,
		client:     client,
		normalizer: normalizer,
		maxBody:    maxBody,
		logger:     logger,
		metrics:    metrics,
		plans:      DefaultPlans(normalizer.Mode()),
	}
}

// Load はリモートのプラン設定を1回だけ取得して状態を置き換える。
//
// 2xx以外・ネットワーク障害・JSONパース失敗はすべてフォールバック継続として
// 扱い、警告フラグを立ててエラーを返す（呼び出し側は起動を継続してよい）。
// ctxのキャンセル後は状態を変更しない（コンポーネント破棄後の書き込み防止）。
func (s *Store) Load(ctx context.Context) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiBaseURL+"/api/public/checkout/plans", nil)
	if err != nil {
		return s.fail(fmt.Errorf("リクエスト作成に失敗: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		// キャンセル起因の失敗はdegraded遷移させない
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return s.fail(fmt.Errorf("HTTPリクエスト失敗: %w", err))
	}
	defer resp.Body.Close()

	s.metrics.RecordUpstreamLatency("plans", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return s.fail(fmt.Errorf("プラン取得に失敗しました: HTTPステータス %d", resp.StatusCode))
	}

	var payload any
	if err := json.NewDecoder(io.LimitReader(resp.Body, s.maxBody)).Decode(&payload); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return s.fail(fmt.Errorf("レスポンスの解析に失敗: %w", err))
	}

	// キャンセル済みなら取得結果を破棄する
	if ctx.Err() != nil {
		return ctx.Err()
	}

	normalized := s.normalizer.Normalize(payload)

	s.mu.Lock()
	s.plans = normalized
	s.degraded = false
	s.warning = ""
	s.mu.Unlock()

	s.metrics.RecordPlanFetch(true)
	s.logger.Info("プラン設定を取得しました",
		slog.String("mode", string(s.normalizer.Mode())),
		slog.Int("http_status", resp.StatusCode),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// fail は取得失敗を記録し、フォールバック継続の状態に遷移する。
// 保持中のプラン（DefaultPlans）はそのまま残す。
func (s *Store) fail(err error) error {
	s.mu.Lock()
	s.degraded = true
	s.warning = FetchWarning
	s.mu.Unlock()

	s.metrics.RecordPlanFetch(false)
	s.logger.Warn("プラン設定の取得に失敗しました",
		slog.String("mode", string(s.normalizer.Mode())),
		slog.String("error", err.Error()),
	)

	return err
}

// Plans は現在のプランデータのコピーを返す。
func (s *Store) Plans() model.CheckoutPlans {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plans.Clone()
}

// Degraded はフォールバック表示中かどうかと警告文を返す。
func (s *Store) Degraded() (bool, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded, s.warning
}

// Mode は料金体系を返す。
func (s *Store) Mode() model.PricingMode {
	return s.normalizer.Mode()
}

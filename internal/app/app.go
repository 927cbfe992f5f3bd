// Package app はアプリケーションの初期化と起動を担う。
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/compasshq/lp-backend/internal/checkout"
	"github.com/compasshq/lp-backend/internal/config"
	"github.com/compasshq/lp-backend/internal/handler"
	"github.com/compasshq/lp-backend/internal/inquiry"
	"github.com/compasshq/lp-backend/internal/logger"
	"github.com/compasshq/lp-backend/internal/metrics"
	"github.com/compasshq/lp-backend/internal/middleware"
	"github.com/compasshq/lp-backend/internal/plan"
	"github.com/compasshq/lp-backend/internal/security"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("pricing_mode", string(cfg.PricingMode)),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandPlans:
		return runPlans(w, cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// 全依存関係をワイヤリングし、プラン設定の初回取得をバックグラウンドで開始し、
// HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. アウトバウンド通信の保護
	egressGuard := security.NewEgressGuard(cfg.AllowPrivateUpstream)
	if err := egressGuard.ValidateBaseURL(cfg.APIBaseURL); err != nil {
		return fmt.Errorf("invalid API_BASE_URL: %w", err)
	}
	upstreamClient := egressGuard.NewClient(cfg.UpstreamTimeout)

	// 2. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 3. プランストアの初期化
	sanitizer := security.NewFormSanitizer()
	normalizer := plan.NewNormalizer(cfg.PricingMode, sanitizer)
	store := plan.NewStore(cfg.APIBaseURL, upstreamClient, normalizer, cfg.UpstreamMaxBody, slog.Default(), collector)

	// プラン取得はバックグラウンドで1回だけ行う。失敗してもフォールバック値で
	// 起動を継続する。シャットダウン時はキャンセルして結果を破棄する。
	loadCtx, loadCancel := context.WithCancel(context.Background())
	defer loadCancel()
	go func() {
		_ = store.Load(loadCtx)
	}()

	// 4. 上流APIクライアントの初期化
	checkoutClient := checkout.NewClient(cfg.APIBaseURL, upstreamClient, cfg.UpstreamMaxBody, slog.Default(), collector)
	inquiryClient := inquiry.NewClient(cfg.APIBaseURL, upstreamClient, cfg.UpstreamMaxBody, slog.Default(), collector)

	// 5. レート制限の初期化
	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitSubmit))
	defer rateLimiter.Stop()

	// 6. ルーターの構築
	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		CrashDir:          cfg.CrashDir,
		Metrics:           collector,
		Gatherer:          registry,
		PlanProvider:      store,
		DemoURL:           cfg.DemoURL,
		CheckoutStarter:   checkoutClient,
		InquirySubmitter:  inquiryClient,
		Sanitizer:         sanitizer,
		MaxBodyBytes:      cfg.UpstreamMaxBody,
		StaticDir:         cfg.StaticDir,
	}

	router := handler.NewRouter(deps)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	// 取得中のプラン設定があれば破棄する
	loadCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runPlans は現在のプラン設定を1回取得してJSONで出力する。
// 上流APIの疎通確認用サブコマンド。取得に失敗した場合もフォールバック値を
// 出力し、degradedフラグで失敗を伝える。
func runPlans(w io.Writer, cfg *config.Config) error {
	egressGuard := security.NewEgressGuard(cfg.AllowPrivateUpstream)
	if err := egressGuard.ValidateBaseURL(cfg.APIBaseURL); err != nil {
		return fmt.Errorf("invalid API_BASE_URL: %w", err)
	}

	sanitizer := security.NewFormSanitizer()
	normalizer := plan.NewNormalizer(cfg.PricingMode, sanitizer)
	store := plan.NewStore(
		cfg.APIBaseURL,
		egressGuard.NewClient(cfg.UpstreamTimeout),
		normalizer,
		cfg.UpstreamMaxBody,
		slog.Default(),
		metrics.NopRecorder{},
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.UpstreamTimeout)
	defer cancel()

	_ = store.Load(ctx)

	degraded, warning := store.Degraded()
	out := map[string]any{
		"mode":     store.Mode(),
		"plans":    store.Plans(),
		"degraded": degraded,
	}
	if warning != "" {
		out["warning"] = warning
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

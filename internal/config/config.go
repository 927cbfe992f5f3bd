package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/compasshq/lp-backend/internal/model"
)

// DefaultAPIBaseURL はチェックアウトAPIのデフォルトエンドポイント。
// API_BASE_URL環境変数で上書きできる。
const DefaultAPIBaseURL = "https://api-g3xwwspyla-an.a.run.app"

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Upstream（チェックアウトAPI）
	APIBaseURL           string
	UpstreamTimeout      time.Duration
	UpstreamMaxBody      int64
	AllowPrivateUpstream bool

	// Pricing
	PricingMode model.PricingMode

	// Rate Limit（IPごと、req/min）
	RateLimitGeneral int
	RateLimitSubmit  int

	// Server
	ServerPort string
	StaticDir  string
	CrashDir   string

	// CORS
	CORSAllowedOrigin string

	// 固定の外部リンク（コアロジックには関与しない）
	DemoURL string
}

// Load は環境変数からConfigを読み込む。
// .envファイルが存在する場合は先に読み込む（ローカル開発用、無ければ無視）。
// PRICING_MODEが未知の値の場合はエラーを返す。
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.APIBaseURL = getEnvString("API_BASE_URL", DefaultAPIBaseURL)
	cfg.UpstreamTimeout = getEnvDuration("UPSTREAM_TIMEOUT", 30*time.Second)
	cfg.UpstreamMaxBody = getEnvInt64("UPSTREAM_MAX_BODY", 1048576)
	cfg.AllowPrivateUpstream = getEnvBool("ALLOW_PRIVATE_UPSTREAM", false)

	mode := model.PricingMode(getEnvString("PRICING_MODE", string(model.ModeTiered)))
	if !mode.IsValid() {
		return nil, fmt.Errorf("invalid PRICING_MODE: %q (allowed: tiered, seat)", mode)
	}
	cfg.PricingMode = mode

	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitSubmit = getEnvInt("RATE_LIMIT_SUBMIT", 10)

	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.StaticDir = getEnvString("STATIC_DIR", "")
	cfg.CrashDir = getEnvString("CRASH_DIR", os.TempDir())

	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173")

	cfg.DemoURL = getEnvString("DEMO_URL", "https://compass-demo.web.app/")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"
)

// crashSnapshot はpanic発生時にローカルに書き出す診断情報。
type crashSnapshot struct {
	Message   string `json:"message"`
	Stack     string `json:"stack"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	RequestID string `json:"requestId"`
	UserAgent string `json:"userAgent"`
	Timestamp string `json:"timestamp"`
}

// NewRecoveryMiddleware はpanic発生時にプロセスクラッシュを防ぎ、
// 500レスポンスを返すミドルウェアを生成する。
//
// snapshotDirが空でなければ診断スナップショットをJSONファイルとして
// ベストエフォートで書き出す。スナップショットの書き込み失敗は無視され、
// レスポンス処理を妨げない。
func NewRecoveryMiddleware(logger *slog.Logger, snapshotDir string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					stack := string(debug.Stack())
					logger.Error("panic recovered",
						slog.Any("panic", rec),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("request_id", RequestIDFromContext(r.Context())),
						slog.String("stack", stack),
					)

					if snapshotDir != "" {
						writeCrashSnapshot(snapshotDir, crashSnapshot{
							Message:   fmt.Sprint(rec),
							Stack:     stack,
							Method:    r.Method,
							Path:      r.URL.Path,
							RequestID: RequestIDFromContext(r.Context()),
							UserAgent: r.UserAgent(),
							Timestamp: time.Now().UTC().Format(time.RFC3339),
						})
					}

					WriteInternalServerError(w)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// writeCrashSnapshot はスナップショットをJSONファイルに書き出す。
// 失敗してもエラーは返さない。診断情報の保存自体が障害源にならないようにする。
func writeCrashSnapshot(dir string, snap crashSnapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}

	name := fmt.Sprintf("crash-%d.json", time.Now().UnixNano())
	_ = os.WriteFile(filepath.Join(dir, name), data, 0o600)
}

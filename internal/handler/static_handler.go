package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// StaticHandler はSPAの静的アセットを配信するHTTPハンドラー。
//
// 実ファイルが存在すればそれを返し、無ければindex.htmlにフォールバックする。
// 規約ページ（/terms /privacy /legal /help）を含むクライアントサイドの
// ルーティングはすべてindex.htmlが受ける。
type StaticHandler struct {
	dir string
}

// NewStaticHandler はStaticHandlerを生成する。
// dirが空の場合、静的配信は無効となりすべて404を返す。
func NewStaticHandler(dir string) *StaticHandler {
	return &StaticHandler{dir: dir}
}

// ServeHTTP はhttp.Handlerを実装する。
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.dir == "" {
		http.NotFound(w, r)
		return
	}

	// ディレクトリトラバーサル対策。クリーン後のパスのみを扱う
	name := filepath.Clean(strings.TrimPrefix(r.URL.Path, "/"))
	if name == "." || strings.HasPrefix(name, "..") {
		name = "index.html"
	}

	path := filepath.Join(h.dir, name)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		path = filepath.Join(h.dir, "index.html")
	}

	http.ServeFile(w, r, path)
}

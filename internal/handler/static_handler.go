package handler

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const indexNotFoundHTML = "<h1>Portfolio Backend Running</h1><p>index.html not found</p>"

// StaticHandler はポートフォリオサイトの静的ファイルを配信する。
type StaticHandler struct {
	dir        string
	resumeFile string
}

// NewStaticHandler はStaticHandlerを生成する。
// dirは静的ファイルのルート、resumeFileはdirからの相対パス。
func NewStaticHandler(dir, resumeFile string) *StaticHandler {
	return &StaticHandler{
		dir:        dir,
		resumeFile: resumeFile,
	}
}

// ResumePath は履歴書を配信するURLパスを返す。
func (h *StaticHandler) ResumePath() string {
	return "/" + filepath.Base(h.resumeFile)
}

// Index はトップページを返す。
// GET /
func (h *StaticHandler) Index(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.dir, "index.html")
	if !isRegularFile(path) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(indexNotFoundHTML))
		return
	}
	http.ServeFile(w, r, path)
}

// Resume は履歴書PDFを返す。
// GET /AR-Resume_2026.pdf
func (h *StaticHandler) Resume(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.dir, h.resumeFile)
	if !isRegularFile(path) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Resume not found"})
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, path)
}

// Directory はdir配下のサブディレクトリをprefix以下で配信するハンドラーを返す。
// ディレクトリ一覧は返さない。
func (h *StaticHandler) Directory(prefix, subdir string) http.Handler {
	fileServer := http.StripPrefix(prefix, http.FileServer(http.Dir(filepath.Join(h.dir, subdir))))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

package api

import (
	"fmt"
	"html"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const placeholderPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Stickyboard - %s</title></head>
<body><p>%s</p></body>
</html>
`

// newPageHandler serves staticDir/file when it exists, otherwise a minimal
// placeholder so the routes work without a built frontend.
func newPageHandler(staticDir, file, title string, log *zap.SugaredLogger) http.Handler {
	var path string
	if staticDir != "" {
		path = filepath.Join(staticDir, file)
		if _, err := os.Stat(path); err != nil {
			log.Warnf("page %s not found, serving placeholder: %v", path, err)
			path = ""
		}
	}

	body := fmt.Sprintf(placeholderPage, html.EscapeString(title), html.EscapeString(title))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		if path != "" {
			http.ServeFile(w, r, path)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(body))
	})
}

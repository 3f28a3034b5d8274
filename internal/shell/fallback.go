package shell

import (
	_ "embed"
	"net/http"
)

//go:embed fallback.html
var fallbackPage []byte

func fallbackHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != FallbackPath {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(fallbackPage)
	})
}

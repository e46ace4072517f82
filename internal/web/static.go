package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	appLog "riverside/internal/log"
)

// embeddedStatic contains the public site: pages, stylesheet, script and
// logo. Every URL in the default offline manifest must exist here.
//
//go:embed all:static
var embeddedStatic embed.FS

// buildTime stands in for file modification times, which embed drops.
var buildTime = time.Now()

// StaticHandler serves the embedded site. Directory paths serve their
// index.html, and /index.html is served as-is rather than redirected, so
// both can be pre-cached.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "site not available", http.StatusServiceUnavailable)
		})
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		name := path.Clean("/" + r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "/") || name == "/" {
			name = path.Join(name, "index.html")
		}
		name = strings.TrimPrefix(name, "/")

		data, err := fs.ReadFile(sub, name)
		if errors.Is(err, fs.ErrNotExist) || isDirErr(sub, name) {
			notFoundPage(w, sub)
			return
		}
		if err != nil {
			appLog.Error("static read failed", err, "path", name)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		http.ServeContent(w, r, name, buildTime, bytes.NewReader(data))
	})
}

func isDirErr(fsys fs.FS, name string) bool {
	st, err := fs.Stat(fsys, name)
	return err == nil && st.IsDir()
}

func notFoundPage(w http.ResponseWriter, fsys fs.FS) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if data, err := fs.ReadFile(fsys, "404.html"); err == nil {
		_, _ = w.Write(data)
		return
	}
	_, _ = w.Write([]byte("<h1>Page not found</h1>"))
}

// handleWebManifest serves the web app manifest. It is not pre-cached and
// is always revalidated.
func (s *Server) handleWebManifest(w http.ResponseWriter, _ *http.Request) {
	type icon struct {
		Src   string `json:"src"`
		Sizes string `json:"sizes"`
		Type  string `json:"type"`
	}
	manifest := struct {
		Name            string `json:"name"`
		ShortName       string `json:"short_name"`
		StartURL        string `json:"start_url"`
		Scope           string `json:"scope"`
		Display         string `json:"display"`
		BackgroundColor string `json:"background_color"`
		ThemeColor      string `json:"theme_color"`
		Icons           []icon `json:"icons"`
	}{
		Name:            "Riverside Academy",
		ShortName:       "Riverside",
		StartURL:        "/",
		Scope:           "/",
		Display:         "standalone",
		BackgroundColor: "#ffffff",
		ThemeColor:      "#1e3a5f",
		Icons:           []icon{{Src: "/assets/logos/logo.svg", Sizes: "any", Type: "image/svg+xml"}},
	}

	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Type", "application/manifest+json")
	if err := json.NewEncoder(w).Encode(manifest); err != nil {
		appLog.Error("failed to write web manifest", err)
	}
}

// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package api

import (
	"net/http"
	"path"
	"strings"
)

// serveIndex serves index.html from the static directory.
func (router *Router) serveIndex(w http.ResponseWriter, r *http.Request) {
	if !router.staticFileExists("/index.html") {
		NewResponseWriter(w, r).NotFound("Dashboard frontend not installed")
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	http.ServeFile(w, r, path.Join(router.staticDir, "index.html"))
}

// serveStatic serves /static/<file> from the static directory. Directories
// and missing files are 404s; there is no listing.
func (router *Router) serveStatic(w http.ResponseWriter, r *http.Request) {
	name := "/" + strings.TrimPrefix(r.URL.Path, "/static/")
	if !router.staticFileExists(name) {
		NewResponseWriter(w, r).NotFound("Static file not found")
		return
	}
	w.Header().Set("Cache-Control", cacheControlFor(name))
	http.StripPrefix("/static", http.FileServer(http.Dir(router.staticDir))).ServeHTTP(w, r)
}

// staticFileExists reports whether name is a regular file inside the static
// directory. http.Dir rejects paths escaping the root.
func (router *Router) staticFileExists(name string) bool {
	f, err := http.Dir(router.staticDir).Open(name)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()
	st, err := f.Stat()
	return err == nil && !st.IsDir()
}

func cacheControlFor(name string) string {
	switch path.Ext(name) {
	case ".js", ".css":
		return "public, max-age=3600"
	case ".png", ".svg", ".jpg", ".ico", ".webp":
		return "public, max-age=604800"
	}
	return "public, max-age=300"
}

// Package static embeds the browser pages served next to the API.
package static

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed pages/*.html assets/*
var contentFS embed.FS

// Page returns the contents of an embedded page.
func Page(name string) ([]byte, error) {
	return contentFS.ReadFile("pages/" + name)
}

// Handler serves the named page as HTML.
func Handler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := Page(name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

// GetFileSystem returns an http.FileSystem for the embedded page scripts.
func GetFileSystem() http.FileSystem {
	fsys, err := fs.Sub(contentFS, "assets")
	if err != nil {
		panic(err)
	}
	return http.FS(fsys)
}

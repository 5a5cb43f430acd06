// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package web serves the prebuilt browser pages.

Assets are served as-is. Page paths resolve to "<path>.html" or
"<path>/index.html" and otherwise fall back to the root index so client-side
routing can take over.
*/
package web

import (
	"io/fs"
	"net/http"
	"path"
	"strings"
)

const indexFile = "index.html"

// Handler serves files from a static export.
type Handler struct {
	files  fs.FS
	assets http.Handler
}

// NewHandler serves files. Use os.DirFS for a directory on disk.
func NewHandler(files fs.FS) *Handler {
	return &Handler{files: files, assets: http.FileServerFS(files)}
}

// ServeHTTP implements [http.Handler].
func (handler *Handler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet && request.Method != http.MethodHead {
		writer.Header().Set("Allow", "GET, HEAD")
		http.Error(writer, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(path.Clean("/"+request.URL.Path), "/")

	// Assets 404 normally; only page paths fall back.
	if path.Ext(name) != "" {
		handler.assets.ServeHTTP(writer, request)
		return
	}

	for _, candidate := range pageCandidates(name) {
		if handler.isFile(candidate) {
			writer.Header().Set("Cache-Control", "no-cache")
			http.ServeFileFS(writer, request, handler.files, candidate)
			return
		}
	}

	http.NotFound(writer, request)
}

func pageCandidates(name string) []string {
	if name == "" {
		return []string{indexFile}
	}
	return []string{name + ".html", path.Join(name, indexFile), indexFile}
}

func (handler *Handler) isFile(name string) bool {
	info, err := fs.Stat(handler.files, name)
	return err == nil && !info.IsDir()
}

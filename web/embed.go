// Package web holds the page templates and static assets compiled into the
// server binary.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html
var TemplatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Static returns the assets rooted at static/, ready for http.FS.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// static/ is embedded above, so Sub cannot fail
		panic(err)
	}
	return sub
}

// Package web embeds the browser client served at the root path.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var static embed.FS

// FS returns the static assets rooted at the directory holding index.html
func FS() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Handler serves the browser client
func Handler() http.Handler {
	return http.FileServer(http.FS(FS()))
}

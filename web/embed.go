// Package web embeds the converter page template and its stylesheet so the
// binary serves the UI without any files on disk.
package web

import (
	"embed"
	"html/template"
	"io/fs"

	"github.com/rs/zerolog/log"
)

//go:embed templates static
var assets embed.FS

// Templates parses the embedded page templates with funcs available.
func Templates(funcs template.FuncMap) (*template.Template, error) {
	return template.New("index.html").Funcs(funcs).ParseFS(assets, "templates/*.html")
}

// StaticFS returns a filesystem rooted at the embedded static/ directory.
// This is ready to use with http.FileServerFS.
func StaticFS() fs.FS {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		log.Fatal().Err(err).Msg("web.StaticFS")
	}
	return sub
}

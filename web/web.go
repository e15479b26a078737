// Package web embeds the site's templates and static assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates static
var content embed.FS

// Templates parses every page and layout template.
func Templates(funcs template.FuncMap) (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(content, "templates/*.html", "templates/layouts/*.html")
}

// Static returns the static asset tree rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(content, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Package views embeds the HTML templates and static assets.
package views

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

// Layout wraps every rendered page.
const Layout = "layouts/base"

//go:embed templates
var templates embed.FS

//go:embed static
var static embed.FS

// Engine returns the template engine over the embedded templates.
func Engine() (*html.Engine, error) {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded templates: %w", err)
	}
	return html.NewFileSystem(http.FS(sub), ".html"), nil
}

// Static returns the embedded static assets rooted at the "static" directory.
func Static() http.FileSystem {
	return http.FS(static)
}

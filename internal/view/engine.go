// Package view renders the server-side pages with pongo2 templates embedded
// in the binary.
package view

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/gofiber/fiber/v2"
)

//go:embed templates
var templateFiles embed.FS

// Engine implements fiber.Views on top of a pongo2 template set.
type Engine struct {
	set   *pongo2.TemplateSet
	files fs.FS
	debug bool
}

var _ fiber.Views = (*Engine)(nil)

// NewEngine builds an engine over the embedded templates. In debug mode
// templates are re-parsed on every render.
func NewEngine(debug bool) (*Engine, error) {
	files, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		return nil, err
	}
	loader, err := pongo2.NewHttpFileSystemLoader(http.FS(files), "")
	if err != nil {
		return nil, err
	}
	set := pongo2.NewSet("views", loader)
	set.Debug = debug
	return &Engine{set: set, files: files, debug: debug}, nil
}

// Load parses every template so syntax errors surface at startup.
func (e *Engine) Load() error {
	return fs.WalkDir(e.files, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(name) != ".html" {
			return nil
		}
		if _, err := e.set.FromCache(name); err != nil {
			return fmt.Errorf("parse template %s: %w", name, err)
		}
		return nil
	})
}

// Render executes the named template with binding as context.
func (e *Engine) Render(w io.Writer, name string, binding interface{}, _ ...string) error {
	if !strings.HasSuffix(name, ".html") {
		name += ".html"
	}
	var (
		tpl *pongo2.Template
		err error
	)
	if e.debug {
		tpl, err = e.set.FromFile(name)
	} else {
		tpl, err = e.set.FromCache(name)
	}
	if err != nil {
		return err
	}
	return tpl.ExecuteWriter(toContext(binding), w)
}

func toContext(binding interface{}) pongo2.Context {
	switch b := binding.(type) {
	case nil:
		return pongo2.Context{}
	case pongo2.Context:
		return b
	case fiber.Map:
		return pongo2.Context(b)
	case map[string]interface{}:
		return pongo2.Context(b)
	default:
		return pongo2.Context{"data": b}
	}
}

package handlers

import (
	"bytes"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Renderer turns a named view and its data into a response. Templates live
// outside this package; JSONRenderer is the default.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, status int, view string, data any)
}

// JSONRenderer writes {"view": ..., "data": ...}.
type JSONRenderer struct{}

func (JSONRenderer) Render(w http.ResponseWriter, r *http.Request, status int, view string, data any) {
	writeJSON(w, status, map[string]any{"view": view, "data": data})
}

// Locals is the per-page metadata every view receives.
type Locals struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

const siteDescription = "Simple blog created with Go, chi and PostgreSQL."

func locals(title string) Locals {
	return Locals{Title: title, Description: siteDescription}
}

// Raw HTML in post bodies is escaped because goldmark's unsafe mode stays off.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderMarkdown converts a post body to HTML.
func RenderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

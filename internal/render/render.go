// Package render builds the HTML fragments that make up the
// conversation view: user bubbles, loading placeholders, image grids,
// and inline error lines.
//
// Fragments are pushed to the page over SSE; the page glue inserts
// them into the conversation container and scrolls to the bottom.
// Prompt text always passes through html/template escaping, so it is
// rendered literally with no markup interpretation.
package render

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"

	"github.com/imagechat/imagechat/internal/imagen"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// GridImage is one image in a rendered grid.
type GridImage struct {
	// ID is the imagestore ID backing the download link.
	ID string

	// DataURI is the base64 data URI used as the img src.
	// template.URL marks it safe; html/template would otherwise
	// reject the data: scheme.
	DataURI template.URL

	// Alt is the accessible description, the original prompt.
	Alt string
}

// NewGridImage builds a GridImage from a stored generation result.
func NewGridImage(id string, res imagen.Result) GridImage {
	uri := fmt.Sprintf("data:%s;base64,%s", res.MIMEType, base64.StdEncoding.EncodeToString(res.Bytes))
	return GridImage{
		ID:      id,
		DataURI: template.URL(uri),
		Alt:     res.AltText,
	}
}

// Renderer renders conversation fragments from embedded templates.
type Renderer struct {
	tmpl *template.Template
}

// New creates a Renderer. Returns an error if the embedded templates
// cannot be parsed.
func New() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// UserMessage renders a user bubble holding the literal prompt text.
func (r *Renderer) UserMessage(text string) (template.HTML, error) {
	return r.execute("user_message", struct{ Text string }{Text: text})
}

// Placeholder renders an AI bubble with an indeterminate loading
// indicator. The id identifies the content region a later fill
// replaces.
func (r *Renderer) Placeholder(id string) (template.HTML, error) {
	return r.execute("placeholder", struct{ ID string }{ID: id})
}

// ImageGrid renders a grid of generated images, one img element per
// result, each carrying the original prompt as its alt text.
func (r *Renderer) ImageGrid(images []GridImage) (template.HTML, error) {
	return r.execute("image_grid", struct{ Images []GridImage }{Images: images})
}

// ErrorLine renders a single human-readable error line for a failed or
// empty generation.
func (r *Renderer) ErrorLine(message string) (template.HTML, error) {
	return r.execute("error_line", struct{ Message string }{Message: message})
}

// execute runs a named template and returns its output as safe HTML.
func (r *Renderer) execute(name string, data interface{}) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

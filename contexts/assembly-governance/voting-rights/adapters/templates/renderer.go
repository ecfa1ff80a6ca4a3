package templates

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"assembly/contexts/assembly-governance/voting-rights/ports"
)

//go:embed files/*.tmpl
var files embed.FS

var ErrUnknownTemplate = errors.New("unknown template key")

type messageTemplates struct {
	subject *texttemplate.Template
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

// Renderer renders the embedded delegation messages. Every variable a
// template references must be supplied.
type Renderer struct {
	templates map[string]messageTemplates
}

func NewRenderer() (*Renderer, error) {
	keys := []string{"delegation_otp", "delegation_confirmed"}
	renderer := &Renderer{templates: make(map[string]messageTemplates, len(keys))}
	for _, key := range keys {
		subject, err := texttemplate.New(key+".subject").Option("missingkey=error").
			ParseFS(files, "files/"+key+".subject.tmpl")
		if err != nil {
			return nil, fmt.Errorf("parse %s subject: %w", key, err)
		}
		text, err := texttemplate.New(key+".txt").Option("missingkey=error").
			ParseFS(files, "files/"+key+".txt.tmpl")
		if err != nil {
			return nil, fmt.Errorf("parse %s text: %w", key, err)
		}
		html, err := htmltemplate.New(key+".html").Option("missingkey=error").
			ParseFS(files, "files/"+key+".html.tmpl")
		if err != nil {
			return nil, fmt.Errorf("parse %s html: %w", key, err)
		}
		renderer.templates[key] = messageTemplates{
			subject: subject.Lookup(key + ".subject.tmpl"),
			text:    text.Lookup(key + ".txt.tmpl"),
			html:    html.Lookup(key + ".html.tmpl"),
		}
	}
	return renderer, nil
}

func (r *Renderer) Render(_ context.Context, templateKey string, vars map[string]string) (ports.RenderedMessage, error) {
	set, ok := r.templates[strings.TrimSpace(templateKey)]
	if !ok {
		return ports.RenderedMessage{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, templateKey)
	}
	var subject, text, html bytes.Buffer
	if err := set.subject.Execute(&subject, vars); err != nil {
		return ports.RenderedMessage{}, fmt.Errorf("render %s subject: %w", templateKey, err)
	}
	if err := set.text.Execute(&text, vars); err != nil {
		return ports.RenderedMessage{}, fmt.Errorf("render %s text: %w", templateKey, err)
	}
	if err := set.html.Execute(&html, vars); err != nil {
		return ports.RenderedMessage{}, fmt.Errorf("render %s html: %w", templateKey, err)
	}
	return ports.RenderedMessage{
		Subject:  strings.TrimSpace(subject.String()),
		Text:     strings.TrimSpace(text.String()),
		HTMLBody: html.String(),
	}, nil
}

var _ ports.TemplateRenderer = (*Renderer)(nil)

// MustRenderer panics when the embedded templates fail to parse.
func MustRenderer() *Renderer {
	renderer, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return renderer
}

// Package web holds embedded static assets and templates for joe-books.
package web

import "embed"

// TemplateFS contains all HTML templates.
//
//go:embed templates
var TemplateFS embed.FS

// StaticFS contains the page script and stylesheet.
//
//go:embed static
var StaticFS embed.FS

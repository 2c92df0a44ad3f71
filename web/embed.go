// Package web embeds the Moodify page templates and static assets.
package web

import "embed"

// TemplatesFS contains the HTML templates: layouts, pages and partials.
//
//go:embed all:templates
var TemplatesFS embed.FS

// StaticFS contains the stylesheet and the live-update script.
//
//go:embed all:static
var StaticFS embed.FS

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown converts multiline section text into HTML using
// goldmark. Raw HTML in the source is escaped, never passed through, since
// section content is edited by page authors and served on public pages.
package markdown

import (
	"bytes"
	"strings"

	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// text renders descriptions, answers and other prose fields.
var text = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,         // tables, strikethrough, autolinks, task lists
		extension.Typographer, // smart quotes and dashes
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(), // a newline in the editor is a line break on the page
	),
)

// code renders the code section as a highlighted fenced block.
var code = goldmark.New(
	goldmark.WithExtensions(
		highlighting.NewHighlighting(
			highlighting.WithStyle("monokai"),
			highlighting.WithFormatOptions(),
		),
	),
)

// ToHTML converts Markdown source into HTML. Embedded raw HTML is replaced
// by goldmark's omitted-content marker.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := text.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Highlight renders source as a syntax-highlighted block for the given
// language. Unknown languages fall back to plain preformatted text.
func Highlight(source, language string) (string, error) {
	fence := "```"
	for strings.Contains(source, fence) {
		fence += "`"
	}
	var doc strings.Builder
	doc.WriteString(fence)
	doc.WriteString(strings.TrimSpace(language))
	doc.WriteString("\n")
	doc.WriteString(source)
	if !strings.HasSuffix(source, "\n") {
		doc.WriteString("\n")
	}
	doc.WriteString(fence)
	doc.WriteString("\n")

	var buf bytes.Buffer
	if err := code.Convert([]byte(doc.String()), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

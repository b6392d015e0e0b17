// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// markdown renders message bodies. Raw HTML in the source is escaped
// (goldmark's default) so command output cannot inject markup.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Strikethrough),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// NewMarkdownMessage creates an m.text message whose body is the
// markdown source and whose formatted_body is the rendered HTML. If
// rendering fails the message is sent as plain text.
func NewMarkdownMessage(body string) MessageContent {
	content := NewTextMessage(body)

	var rendered bytes.Buffer
	if err := markdown.Convert([]byte(body), &rendered); err != nil {
		return content
	}
	content.Format = FormatHTML
	content.FormattedBody = strings.TrimSuffix(rendered.String(), "\n")
	return content
}

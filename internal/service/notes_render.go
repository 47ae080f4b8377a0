package service

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	notesMarkdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	notesPolicy = bluemonday.UGCPolicy()
)

// RenderNotes 把周期任务备注按 Markdown 渲染为经过清洗的 HTML。
func RenderNotes(notes string) string {
	trimmed := strings.TrimSpace(notes)
	if trimmed == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := notesMarkdown.Convert([]byte(trimmed), &buf); err != nil {
		return notesPolicy.Sanitize(trimmed)
	}
	return strings.TrimSpace(string(notesPolicy.SanitizeBytes(buf.Bytes())))
}

package service

import (
	"strings"
	"testing"
)

func TestRenderNotes(t *testing.T) {
	if RenderNotes("   ") != "" {
		t.Fatal("expected empty notes to render empty")
	}

	html := RenderNotes("**带水杯**\n<script>alert(1)</script>")
	if !strings.Contains(html, "<strong>带水杯</strong>") {
		t.Fatalf("expected markdown emphasis, got %q", html)
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("expected script to be stripped, got %q", html)
	}
}

package service

import (
	"strings"
	"testing"
)

func TestRenderHTML(t *testing.T) {
	s := NewExportService(nil, nil)
	html, err := s.renderHTML("# Database Schema Report\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, "<h1") || !strings.Contains(html, "Database Schema Report") {
		t.Errorf("missing heading:\n%s", html)
	}
	// tables come from the GFM extension
	if !strings.Contains(html, "<table>") {
		t.Errorf("missing table markup:\n%s", html)
	}
}

func TestRenderHTML_HeadingIDs(t *testing.T) {
	s := NewExportService(nil, nil)
	html, err := s.renderHTML("## My Section\n")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, `id="my-section"`) {
		t.Errorf("missing auto heading id:\n%s", html)
	}
}

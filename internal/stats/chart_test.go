package stats

import (
	"bytes"
	"strings"
	"testing"
)

func TestBarWidthFor(t *testing.T) {
	if got := BarWidthFor(80, 10, 8); got != 60 {
		t.Fatalf("expected width 60, got %d", got)
	}
	if got := BarWidthFor(12, 10, 8); got != minBarWidth {
		t.Fatalf("expected min width %d, got %d", minBarWidth, got)
	}
}

func TestRenderBarsScalesToMax(t *testing.T) {
	var buf bytes.Buffer
	bars := []Bar{{Label: "Mon", Value: 40}, {Label: "Tue", Value: 0}, {Label: "Wed", Value: 1}}
	if err := RenderBars(&buf, "Week", bars, "min", 30, false); err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 || lines[0] != "Week" {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
	width := BarWidthFor(30, 3, len(" 40 min"))
	if got := strings.Count(lines[1], barChar); got != width {
		t.Fatalf("max bar = %d cells, want %d", got, width)
	}
	if strings.Contains(lines[2], barChar) {
		t.Fatalf("zero bar drawn: %q", lines[2])
	}
	if got := strings.Count(lines[3], barChar); got != 1 {
		t.Fatalf("small bar = %d cells, want 1", got)
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("unexpected color codes for non-terminal writer")
	}
}

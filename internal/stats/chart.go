package stats

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Bar is one labelled value of a bar chart.
type Bar struct {
	Label string
	Value int
}

const (
	minBarWidth         = 10
	barChar             = "█"
	colorReset          = "\x1b[0m"
	barColor            = "\x1b[36m"
	terminalWidthBackup = 80
)

// BarWidthFor computes the bar area width for a total width, label width and value suffix.
func BarWidthFor(totalWidth, labelWidth, suffixWidth int) int {
	if totalWidth <= 0 {
		totalWidth = terminalWidth()
	}
	width := totalWidth - labelWidth - suffixWidth - 2
	if width < minBarWidth {
		width = minBarWidth
	}
	return width
}

// RenderBars draws horizontal bars scaled to the largest value.
func RenderBars(w io.Writer, title string, bars []Bar, unit string, totalWidth int, forceColor bool) error {
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	labelWidth, suffixWidth, maxVal := 0, 0, 0
	for _, b := range bars {
		if lw := displayWidth(b.Label); lw > labelWidth {
			labelWidth = lw
		}
		if sw := len(fmt.Sprintf(" %d %s", b.Value, unit)); sw > suffixWidth {
			suffixWidth = sw
		}
		if b.Value > maxVal {
			maxVal = b.Value
		}
	}
	width := BarWidthFor(totalWidth, labelWidth, suffixWidth)
	useColor := shouldUseColor(w, forceColor)
	for _, b := range bars {
		n := 0
		if maxVal > 0 && b.Value > 0 {
			n = b.Value * width / maxVal
			if n == 0 {
				n = 1
			}
		}
		bar := strings.Repeat(barChar, n)
		if useColor && n > 0 {
			bar = barColor + bar + colorReset
		}
		line := fmt.Sprintf("%s  %s%s %d %s", padCell(b.Label, labelWidth, false), bar, strings.Repeat(" ", width-n), b.Value, unit)
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

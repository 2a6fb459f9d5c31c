package tui

import (
	"fmt"
	"os"
)

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func ringBell() {
	if _, err := fmt.Fprint(os.Stderr, "\a"); err != nil {
		// Best-effort bell.
		_ = err
	}
}

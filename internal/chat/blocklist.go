package chat

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadBlocklist reads one keyword per line. Blank lines and lines starting
// with '#' are skipped; duplicates are dropped.
func LoadBlocklist(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only blocklist.
			_ = cerr
		}
	}()

	seen := map[string]bool{}
	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line == "" || strings.HasPrefix(line, "#") || seen[line] {
			continue
		}
		seen[line] = true
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("blocklist %s is empty", path)
	}
	return words, nil
}

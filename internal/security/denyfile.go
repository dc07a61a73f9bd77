package security

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadDenyPatterns reads extra deny-list substrings, one per line. Blank lines and
// lines starting with '#' are skipped. A missing path yields no patterns.
func LoadDenyPatterns(path string) ([]string, error) {
	normalizedPath := strings.TrimSpace(path)
	if normalizedPath == "" {
		return nil, nil
	}

	file, openError := os.Open(normalizedPath)
	if openError != nil {
		if os.IsNotExist(openError) {
			return nil, nil
		}
		return nil, fmt.Errorf("open deny-list file: %w", openError)
	}
	defer file.Close()

	patterns := make([]string, 0)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		rawLine := strings.TrimRight(scanner.Text(), "\r")
		trimmedLine := strings.TrimSpace(rawLine)
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, "#") {
			continue
		}
		patterns = append(patterns, trimmedLine)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, fmt.Errorf("read deny-list file: %w", scanError)
	}
	return patterns, nil
}

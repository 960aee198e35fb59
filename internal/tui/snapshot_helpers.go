package tui

import (
	"regexp"
	"strings"
)

// ansiRegex matches ANSI escape sequences for color and formatting
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// stripAnsiCodes removes all ANSI escape sequences from a string,
// leaving only the plain text content.
func stripAnsiCodes(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// normalizeOutput trims trailing whitespace from each line and drops
// trailing empty lines.
func normalizeOutput(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// plainView renders v without styling, for assertions and the log.
func plainView(v string) string {
	return normalizeOutput(stripAnsiCodes(v))
}

// Package text provides text formatting utilities for CLI commands.
package text

import (
	"strconv"
	"strings"
)

// Indentation is the standard indentation for CLI help text.
const Indentation = `  `

// LongDesc trims a command's long description and strips the source indentation of every line.
func LongDesc(s string) string {
	if len(s) == 0 {
		return s
	}

	return normalizer{s}.trim().dedent().string
}

// Examples trims a command's examples and indents every line by Indentation.
func Examples(s string) string {
	if len(s) == 0 {
		return s
	}

	return normalizer{s}.trim().dedent().indent().string
}

// Plural returns n followed by word, adding an s unless n is 1.
func Plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}

	return strconv.Itoa(n) + " " + word + "s"
}

type normalizer struct {
	string
}

func (s normalizer) trim() normalizer {
	s.string = strings.TrimSpace(s.string)

	return s
}

func (s normalizer) dedent() normalizer {
	lines := strings.Split(s.string, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s.string = strings.Join(lines, "\n")

	return s
}

func (s normalizer) indent() normalizer {
	lines := strings.Split(s.string, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = Indentation + line
		}
	}
	s.string = strings.Join(lines, "\n")

	return s
}

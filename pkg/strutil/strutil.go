// Package strutil holds the small byte-oriented string helpers shared by the
// row and directive readers. All helpers are ASCII-only: delimiters, comment
// markers and blanks are single bytes.
package strutil

import "strings"

// Split returns every delim-separated segment of text, empty ones included.
// Split("", d) yields a single empty segment.
func Split(text string, delim byte) []string {
	return strings.Split(text, string([]byte{delim}))
}

// CutComment returns the text before the first comment byte and whether a
// comment byte was found.
func CutComment(text string, comment byte) (string, bool) {
	if i := strings.IndexByte(text, comment); i >= 0 {
		return text[:i], true
	}
	return text, false
}

// StripComment truncates text at the first comment byte.
func StripComment(text string, comment byte) string {
	before, _ := CutComment(text, comment)
	return before
}

// StripComments truncates text at the first byte that appears in markers.
func StripComments(text string, markers string) string {
	if i := strings.IndexAny(text, markers); i >= 0 {
		return text[:i]
	}
	return text
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// Trim removes leading and trailing spaces, tabs, CR and LF.
func Trim(text string) string {
	start, end := 0, len(text)
	for start < end && isBlank(text[start]) {
		start++
	}
	for end > start && isBlank(text[end-1]) {
		end--
	}
	return text[start:end]
}

// SafeName replaces every byte that is not an ASCII letter or digit with '_',
// producing a token usable as a file name.
func SafeName(text string) string {
	b := []byte(text)
	for i, c := range b {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			continue
		}
		b[i] = '_'
	}
	return string(b)
}

// Dir returns the part of path before its last '/' or '\'.
// It returns "" when path has no separator and path unchanged when the
// separator is its final byte.
func Dir(path string) string {
	last := strings.LastIndexAny(path, `/\`)
	if last < 0 {
		return ""
	}
	if last == len(path)-1 {
		return path
	}
	return path[:last]
}

// Ext returns the segment after the last '.' of path, or "" when there is none.
func Ext(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return path[i+1:]
}

// Package utils provides small helpers for parsing request parameters.
package utils

import (
	"strconv"
	"strings"
)

// AtoiDefault parses s as a base-10 int, returning def when s is blank or
// not a number. Surrounding whitespace is ignored.
//
//	utils.AtoiDefault("42", 0)  // 42
//	utils.AtoiDefault(" 7 ", 1) // 7
//	utils.AtoiDefault("x", 5)   // 5
func AtoiDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Clamp bounds n to [lo, hi].
func Clamp(n, lo, hi int) int {
	return min(max(n, lo), hi)
}

// Page parses a 1-based page number and a page size bounded by maxSize.
func Page(pageRaw, sizeRaw string, defSize, maxSize int) (page, size int) {
	page = max(AtoiDefault(pageRaw, 1), 1)
	size = Clamp(AtoiDefault(sizeRaw, defSize), 1, maxSize)
	return page, size
}

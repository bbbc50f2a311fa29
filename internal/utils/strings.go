package utils

import (
	"strings"
)

// NormalizeSpace trims and collapses repeated whitespace into a single space.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

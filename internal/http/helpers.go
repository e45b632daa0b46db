package http

import "strings"

// sanitizeInput drops control characters other than tab, newline and
// carriage return. Whitespace is left for the ledger to judge.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if (r < 32 && r != '\t' && r != '\n' && r != '\r') || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

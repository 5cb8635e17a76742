package ingest

import (
	"regexp"
	"strings"
)

var (
	paragraphBreakRe = regexp.MustCompile(`\n\s*\n`)
	whitespaceRunRe  = regexp.MustCompile(`\s+`)
)

// Normalize collapses whitespace runs to single spaces while preserving
// paragraph structure: blank-line-separated blocks are re-emitted with a
// canonical "\n\n" separator. Pure and idempotent.
func Normalize(text string) string {
	blocks := paragraphBreakRe.Split(text, -1)

	out := make([]string, 0, len(blocks))
	for _, block := range blocks {
		block = strings.TrimSpace(whitespaceRunRe.ReplaceAllString(block, " "))
		if block == "" {
			continue
		}
		out = append(out, block)
	}
	return strings.Join(out, "\n\n")
}

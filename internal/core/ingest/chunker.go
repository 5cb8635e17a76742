package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/davidmtz-dev/hrassist/internal/core"
)

const paragraphSep = "\n\n"

// substantialOverlapChars is the minimum trimmed length an overlap fragment
// must have to seed the next chunk; shorter remainders fall back to no
// overlap. Retrieval quality downstream depends on this exact behavior, so
// don't tune it casually.
const substantialOverlapChars = 50

// Chunker splits normalized text into chunks bounded by a character-size
// target and a hard token ceiling. Paragraph boundaries are preserved where
// possible; consecutive chunks share a character-based overlap seed; any
// chunk or paragraph over the token ceiling is re-split on token windows.
//
// Deterministic given identical input and tokenizer. No emitted chunk ever
// exceeds maxTokens tokens.
type Chunker struct {
	tok         core.Tokenizer
	targetChars int
	charOverlap int
	maxTokens   int
}

func NewChunker(tok core.Tokenizer, targetChars, charOverlap, maxTokens int) *Chunker {
	if targetChars <= 0 {
		targetChars = 1500
	}
	if charOverlap < 0 {
		charOverlap = 0
	}
	if maxTokens <= 0 {
		maxTokens = 8000
	}
	return &Chunker{tok: tok, targetChars: targetChars, charOverlap: charOverlap, maxTokens: maxTokens}
}

// Split chunks normalized text. Returns nil for whitespace-only input.
func (c *Chunker) Split(text string) []string {
	var paragraphs []string
	for _, p := range strings.Split(text, paragraphSep) {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	var (
		chunks   []string
		buf      []string
		bufChars int
	)

	closeBuffer := func() {
		closed := strings.Join(buf, paragraphSep)
		if c.tok.CountTokens(closed) > c.maxTokens {
			// Character triggers can still exceed the token ceiling for
			// dense text; re-split on token windows.
			chunks = append(chunks, c.splitByTokens(closed)...)
		} else {
			chunks = append(chunks, closed)
		}
	}

	for _, para := range paragraphs {
		paraChars := utf8.RuneCountInString(para)
		exceedChars := bufChars+paraChars+2*len(buf) > c.targetChars

		candidate := para
		if len(buf) > 0 {
			candidate = strings.Join(buf, paragraphSep) + paragraphSep + para
		}
		exceedTokens := c.tok.CountTokens(candidate) > c.maxTokens

		switch {
		case len(buf) > 0 && (exceedChars || exceedTokens):
			closed := strings.Join(buf, paragraphSep)
			closeBuffer()

			if seed, ok := c.overlapSeed(closed); ok {
				buf = []string{seed, para}
			} else {
				buf = []string{para}
			}
			bufChars = 0
			for _, p := range buf {
				bufChars += utf8.RuneCountInString(p) + 2
			}
			bufChars -= 2

		case exceedTokens:
			// A single paragraph alone is over the ceiling: route it
			// straight to the token splitter, bypassing the buffer.
			chunks = append(chunks, c.splitByTokens(para)...)
			buf = nil
			bufChars = 0

		default:
			buf = append(buf, para)
			bufChars += paraChars + 2
		}
	}

	if len(buf) > 0 {
		closeBuffer()
	}

	return chunks
}

// overlapSeed takes the trailing charOverlap characters of the previous
// chunk and backs off to the nearest paragraph break within that tail.
// The fragment seeds the next chunk only when it remains substantial.
func (c *Chunker) overlapSeed(prev string) (string, bool) {
	if c.charOverlap <= 0 || prev == "" {
		return "", false
	}
	tail := prev
	if runes := []rune(prev); len(runes) > c.charOverlap {
		tail = string(runes[len(runes)-c.charOverlap:])
	}
	idx := strings.LastIndex(tail, paragraphSep)
	if idx < 0 {
		return "", false
	}
	frag := strings.TrimSpace(tail[idx:])
	if utf8.RuneCountInString(frag) <= substantialOverlapChars {
		return "", false
	}
	return frag, true
}

// splitByTokens cuts oversized text into token windows of at most maxTokens,
// backing each non-final window boundary off to the latest sentence or
// paragraph break past the window midpoint so sub-chunks avoid mid-sentence
// splits when possible. Whitespace-only windows are dropped.
func (c *Chunker) splitByTokens(text string) []string {
	if c.tok.CountTokens(text) <= c.maxTokens {
		return []string{text}
	}

	tokens := c.tok.Encode(text)
	var subs []string

	pos := 0
	for pos < len(tokens) {
		end := pos + c.maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		if end < len(tokens) {
			window := c.tok.Decode(tokens[pos:end])
			if cut := sentenceCut(window); cut > 0 {
				adjusted := pos + len(c.tok.Encode(window[:cut]))
				if adjusted > pos && adjusted < end {
					end = adjusted
				}
			}
		}

		sub := c.tok.Decode(tokens[pos:end])
		if strings.TrimSpace(sub) != "" {
			subs = append(subs, sub)
		}
		pos = end
	}
	return subs
}

// sentenceCut returns the byte offset just past the latest sentence or
// paragraph marker in window, or 0 when the only breaks sit before the
// midpoint (cutting there would produce lopsided sub-chunks).
func sentenceCut(window string) int {
	best := -1
	for _, marker := range []string{". ", "! ", "? ", paragraphSep} {
		if idx := strings.LastIndex(window, marker); idx >= 0 && idx+len(marker) > best {
			best = idx + len(marker)
		}
	}
	if best < 0 {
		return 0
	}
	if utf8.RuneCountInString(window[:best]) <= utf8.RuneCountInString(window)/2 {
		return 0
	}
	return best
}

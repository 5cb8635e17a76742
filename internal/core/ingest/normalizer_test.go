package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_CollapsesWhitespaceWithinParagraphs(t *testing.T) {
	in := "Remote  work \t policy\napplies to all staff."
	assert.Equal(t, "Remote work policy applies to all staff.", Normalize(in))
}

func TestNormalize_PreservesParagraphBoundaries(t *testing.T) {
	in := "First   paragraph\nwith a wrapped line.\n\n\n  Second\tparagraph.  "
	assert.Equal(t, "First paragraph with a wrapped line.\n\nSecond paragraph.", Normalize(in))
}

func TestNormalize_BlankLinesWithInteriorWhitespace(t *testing.T) {
	// A "blank" line carrying spaces or tabs still separates paragraphs.
	in := "one\n \t \ntwo"
	assert.Equal(t, "one\n\ntwo", Normalize(in))
}

func TestNormalize_DropsEmptyBlocks(t *testing.T) {
	assert.Equal(t, "a\n\nb", Normalize("\n\n a \n\n\n\n b \n\n"))
}

func TestNormalize_WhitespaceOnlyInput(t *testing.T) {
	assert.Equal(t, "", Normalize("   \n\t\n  "))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"plain text",
		"p1  .\n\np2\twith\ttabs\n\n\np3",
		"trailing newline run\n\n\n\n",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

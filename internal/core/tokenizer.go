package core

// Tokenizer counts and maps text to model tokens. Implementations must be
// pure and safe for concurrent use; the chunker relies on Decode(Encode(s))
// round-tripping s exactly.
type Tokenizer interface {
	CountTokens(text string) int
	Encode(text string) []int
	Decode(tokens []int) string
}

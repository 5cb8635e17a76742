package tokenizer

import (
	"log"

	"github.com/pkoukk/tiktoken-go"

	"github.com/davidmtz-dev/hrassist/internal/core"
)

// TiktokenAdapter wraps a tiktoken BPE encoding behind core.Tokenizer.
// Constructed once at startup and injected wherever token counts are
// needed, instead of living as process-wide state.
type TiktokenAdapter struct {
	enc *tiktoken.Tiktoken
}

var _ core.Tokenizer = (*TiktokenAdapter)(nil)

// NewForModel resolves the encoding for the given embedding model, falling
// back to cl100k_base when the model is unknown.
func NewForModel(modelName string) (*TiktokenAdapter, error) {
	enc, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		log.Printf("WARN: no encoding registered for %q, using cl100k_base", modelName)
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	return &TiktokenAdapter{enc: enc}, nil
}

func (t *TiktokenAdapter) CountTokens(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

func (t *TiktokenAdapter) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *TiktokenAdapter) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

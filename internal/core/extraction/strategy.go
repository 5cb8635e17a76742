package extraction

import "context"

// Strategy is one way of recovering text from a file's raw bytes.
// Strategies are tried in order by the extractors; a failing strategy
// degrades to the next one instead of failing the document.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, data []byte) (string, error)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/davidmtz-dev/hrassist/internal/core"
	"github.com/davidmtz-dev/hrassist/internal/models"
)

// ErrNoContext is returned when retrieval finds nothing relevant for
// the question. Callers can check IsEmpty to tell an empty collection
// apart from a miss.
var ErrNoContext = errors.New("no relevant documents found")

const systemPrompt = `You are an assistant specialized in Human Resources policy.
Your role is to answer questions based exclusively on the policy documents provided in the context.

Instructions:
1. Answer clearly and precisely, grounded only in the provided documents.
2. If the answer is not in the documents, state clearly that no information is available.
3. Always answer in the same language the question was asked in (Spanish or English).
4. Do not use assumptions or information external to the provided documents.
5. For questions about procedures, rights or obligations, cite the relevant clause or article.
6. End the answer with the source, giving only the file name of the document it came from.`

type Assistant struct {
	store           core.Collection
	llm             core.LLMProvider
	topK            int
	maxContextChars int
}

func NewAssistant(store core.Collection, llm core.LLMProvider, topK, maxContextChars int) *Assistant {
	if topK <= 0 {
		topK = 3
	}
	if maxContextChars <= 0 {
		maxContextChars = 6000
	}
	return &Assistant{store: store, llm: llm, topK: topK, maxContextChars: maxContextChars}
}

// Ask retrieves context for the question and streams the generated
// answer through emit, one token at a time.
func (a *Assistant) Ask(ctx context.Context, question, language string, history []models.ChatMessage, emit func(token string) error) error {
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("empty question")
	}
	if language == "" {
		language = "spanish"
	}

	contextText, sources, err := a.retrieve(ctx, question)
	if err != nil {
		return err
	}

	userPrompt := a.buildPrompt(question, contextText, sources, history, language)
	return a.llm.GenerateStream(ctx, systemPrompt, userPrompt, emit)
}

// IsEmpty reports whether the collection holds no chunks at all,
// used to render a more helpful notice than a plain retrieval miss.
func (a *Assistant) IsEmpty(ctx context.Context) (bool, error) {
	n, err := a.store.Count(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

func (a *Assistant) retrieve(ctx context.Context, question string) (string, []string, error) {
	hits, err := a.store.Query(ctx, question, a.topK)
	if err != nil {
		return "", nil, fmt.Errorf("query collection: %w", err)
	}
	if len(hits) == 0 {
		return "", nil, ErrNoContext
	}

	seen := make(map[string]bool)
	var sources []string
	texts := make([]string, 0, len(hits))
	for _, h := range hits {
		texts = append(texts, h.Text)
		if name := h.Metadata.FileName; name != "" && !seen[name] {
			seen[name] = true
			sources = append(sources, name)
		}
	}

	joined := strings.Join(texts, "\n\n")
	if len([]rune(joined)) > a.maxContextChars {
		joined = string([]rune(joined)[:a.maxContextChars])
	}
	log.Printf("Retrieved %d chunks (%d context chars) for question", len(hits), len(joined))
	return joined, sources, nil
}

func (a *Assistant) buildPrompt(question, contextText string, sources []string, history []models.ChatMessage, language string) string {
	var b strings.Builder

	b.WriteString("Context from the policy documents")
	if len(sources) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(sources, ", "))
		b.WriteString(")")
	}
	b.WriteString(":\n")
	b.WriteString(contextText)

	if len(history) > 0 {
		b.WriteString("\n\nPrevious conversation:\n")
		for _, msg := range history {
			role := "Assistant"
			if msg.Role == "user" {
				role = "User"
			}
			fmt.Fprintf(&b, "%s: %s\n", role, msg.Content)
		}
	}

	fmt.Fprintf(&b, "\nQuestion:\n%s\n\nAnswer in %s:\n", question, language)
	return b.String()
}

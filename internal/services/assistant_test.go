package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidmtz-dev/hrassist/internal/models"
)

type fakeStore struct {
	hits  []models.ScoredChunk
	err   error
	count int64
}

func (f *fakeStore) Upsert(context.Context, []models.ChunkRecord) error { return nil }
func (f *fakeStore) GetByFileName(context.Context, string) ([]models.StoredChunk, error) {
	return nil, nil
}
func (f *fakeStore) DeleteByIDs(context.Context, []string) error { return nil }
func (f *fakeStore) Query(context.Context, string, int) ([]models.ScoredChunk, error) {
	return f.hits, f.err
}
func (f *fakeStore) Count(context.Context) (int64, error) { return f.count, nil }
func (f *fakeStore) ListDocuments(context.Context) ([]models.DocumentSummary, error) {
	return nil, nil
}

type fakeLLM struct {
	tokens    []string
	err       error
	gotSystem string
	gotUser   string
}

func (f *fakeLLM) GenerateStream(_ context.Context, system, user string, emit func(string) error) error {
	f.gotSystem = system
	f.gotUser = user
	if f.err != nil {
		return f.err
	}
	for _, tk := range f.tokens {
		if err := emit(tk); err != nil {
			return err
		}
	}
	return nil
}

func scoredChunk(file, text string) models.ScoredChunk {
	return models.ScoredChunk{
		Text: text,
		Metadata: models.ChunkMetadata{
			FileMetadata: models.FileMetadata{FileName: file},
		},
	}
}

func collect(out *[]string) func(string) error {
	return func(tk string) error {
		*out = append(*out, tk)
		return nil
	}
}

func TestAsk_StreamsTokens(t *testing.T) {
	store := &fakeStore{hits: []models.ScoredChunk{scoredChunk("rit.pdf", "Article 22 covers lateness.")}}
	llm := &fakeLLM{tokens: []string{"Late", " arrivals", " are sanctioned."}}
	a := NewAssistant(store, llm, 3, 6000)

	var got []string
	err := a.Ask(context.Background(), "What happens if I am late?", "english", nil, collect(&got))
	require.NoError(t, err)

	assert.Equal(t, []string{"Late", " arrivals", " are sanctioned."}, got)
}

func TestAsk_PromptCarriesContextSourcesAndHistory(t *testing.T) {
	store := &fakeStore{hits: []models.ScoredChunk{
		scoredChunk("contract.pdf", "Chunk about bonuses."),
		scoredChunk("rit.pdf", "Chunk about sanctions."),
		scoredChunk("contract.pdf", "More about bonuses."),
	}}
	llm := &fakeLLM{tokens: []string{"ok"}}
	a := NewAssistant(store, llm, 3, 6000)

	history := []models.ChatMessage{
		{Role: "user", Content: "Hola"},
		{Role: "assistant", Content: "Hola, ¿en qué puedo ayudar?"},
	}

	var got []string
	err := a.Ask(context.Background(), "¿Cuántos días de aguinaldo?", "spanish", history, collect(&got))
	require.NoError(t, err)

	assert.Contains(t, llm.gotUser, "Chunk about bonuses.")
	assert.Contains(t, llm.gotUser, "Chunk about sanctions.")
	assert.Contains(t, llm.gotUser, "contract.pdf, rit.pdf")
	assert.Contains(t, llm.gotUser, "User: Hola")
	assert.Contains(t, llm.gotUser, "Assistant: Hola, ¿en qué puedo ayudar?")
	assert.Contains(t, llm.gotUser, "¿Cuántos días de aguinaldo?")
	assert.Contains(t, llm.gotUser, "Answer in spanish:")
	assert.NotEmpty(t, llm.gotSystem)
}

func TestAsk_ContextCapped(t *testing.T) {
	big := strings.Repeat("x", 5000)
	store := &fakeStore{hits: []models.ScoredChunk{
		scoredChunk("a.pdf", big),
		scoredChunk("b.pdf", big),
	}}
	llm := &fakeLLM{tokens: []string{"ok"}}
	a := NewAssistant(store, llm, 3, 6000)

	var got []string
	err := a.Ask(context.Background(), "question", "english", nil, collect(&got))
	require.NoError(t, err)

	// 2x5000 chars of retrieved text must be clamped before prompting.
	assert.Less(t, len(llm.gotUser), 7000)
}

func TestAsk_NoHits(t *testing.T) {
	a := NewAssistant(&fakeStore{}, &fakeLLM{}, 3, 6000)

	err := a.Ask(context.Background(), "unknown topic", "english", nil, collect(&[]string{}))
	assert.ErrorIs(t, err, ErrNoContext)
}

func TestAsk_QueryErrorPropagates(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	a := NewAssistant(store, &fakeLLM{}, 3, 6000)

	err := a.Ask(context.Background(), "question", "english", nil, collect(&[]string{}))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoContext)
}

func TestAsk_EmptyQuestion(t *testing.T) {
	a := NewAssistant(&fakeStore{}, &fakeLLM{}, 3, 6000)
	err := a.Ask(context.Background(), "   ", "english", nil, collect(&[]string{}))
	assert.Error(t, err)
}

func TestAsk_EmitErrorStopsStream(t *testing.T) {
	store := &fakeStore{hits: []models.ScoredChunk{scoredChunk("a.pdf", "ctx")}}
	llm := &fakeLLM{tokens: []string{"one", "two"}}
	a := NewAssistant(store, llm, 3, 6000)

	boom := errors.New("client gone")
	err := a.Ask(context.Background(), "q", "english", nil, func(string) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestIsEmpty(t *testing.T) {
	a := NewAssistant(&fakeStore{count: 0}, &fakeLLM{}, 3, 6000)
	empty, err := a.IsEmpty(context.Background())
	require.NoError(t, err)
	assert.True(t, empty)

	a = NewAssistant(&fakeStore{count: 12}, &fakeLLM{}, 3, 6000)
	empty, err = a.IsEmpty(context.Background())
	require.NoError(t, err)
	assert.False(t, empty)
}

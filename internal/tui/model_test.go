package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragdocs/internal/domain"
)

type stubSearcher struct {
	hits      []domain.SearchHit
	err       error
	lastLimit int
}

func (s *stubSearcher) Search(_ context.Context, _ string, limit int) ([]domain.SearchHit, error) {
	s.lastLimit = limit
	return s.hits, s.err
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

func typeQuery(m Model, q string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(q)})
	return next.(Model)
}

func TestModel_SearchFlow(t *testing.T) {
	s := &stubSearcher{hits: []domain.SearchHit{
		{Path: "a.md", Score: 0.9, Content: "Tokens expire hourly. Refresh them early."},
		{Path: "b.md", Score: 0.4, Content: "Unrelated."},
	}}
	m := typeQuery(sized(t, New(s, 7, "2 documents")), "refresh")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.searching)

	next, _ = m.Update(cmd())
	m = next.(Model)
	assert.False(t, m.searching)
	assert.Equal(t, 7, s.lastLimit)
	assert.Len(t, m.results, 2)
	assert.Contains(t, m.status, `2 results for "refresh"`)
	assert.Contains(t, m.renderCurrentResult(), "a.md #0")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Equal(t, 1, m.cursor)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Equal(t, 0, m.cursor)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(Model)
	assert.Equal(t, 1, m.cursor)
}

func TestModel_SearchError(t *testing.T) {
	m := sized(t, New(&stubSearcher{err: errors.New("store down")}, 5, ""))
	next, _ := m.Update(resultsMsg{query: "x", err: errors.New("store down")})
	m = next.(Model)
	assert.Equal(t, "Error: store down", m.status)
	assert.Empty(t, m.results)
	assert.Equal(t, "No results yet.", m.renderCurrentResult())
}

func TestModel_EmptyQueryDoesNothing(t *testing.T) {
	m := sized(t, New(&stubSearcher{}, 5, ""))
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, next.(Model).searching)
	assert.Contains(t, next.(Model).status, "Ready.")
}

func TestModel_ViewBeforeSize(t *testing.T) {
	assert.Equal(t, "Loading...", New(&stubSearcher{}, 5, "").View())
}

func TestHighlightBestSentence(t *testing.T) {
	out := highlightBestSentence("Cats sleep. Dogs bark loudly. Birds sing.", "dogs bark")
	assert.Contains(t, out, "Dogs bark loudly.")
	assert.Contains(t, out, "Cats sleep.")
	assert.Equal(t, 3, strings.Count(out, "."))

	assert.Equal(t, "", highlightBestSentence("", "q"))
	assert.Equal(t, "One. Two.", highlightBestSentence("One. Two.", ""))
}

func TestHighlightBestSentence_KeepsUnterminatedTail(t *testing.T) {
	out := highlightBestSentence("Tokens rotate hourly. Clients must refre", "clients")
	assert.Contains(t, out, "Tokens rotate hourly.")
	assert.Contains(t, out, "Clients must refre")

	assert.Equal(t, "Tokens rotate hourly. Clients must refre",
		highlightBestSentence("Tokens rotate hourly.  Clients must refre", ""))
	assert.Equal(t, "no terminator at all", highlightBestSentence("  no terminator at all ", ""))
}

func TestSplitSentences(t *testing.T) {
	assert.Equal(t, []string{"One.", "Two!", "three"}, splitSentences("One. Two!\n three  "))
	assert.Equal(t, []string{"One."}, splitSentences("One.   "))
	assert.Nil(t, splitSentences("   "))
}

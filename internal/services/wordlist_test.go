package services

import (
	"testing"

	"github.com/huangang/modsentry/backend/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordlist_AddNormalizesAndReactivates(t *testing.T) {
	env := newTestEnv(t)
	ctx := ctxT(t)

	w, err := env.wordlist.Add(ctx, "  ScamCoin ", "Spam")
	require.NoError(t, err)
	assert.Equal(t, "scamcoin", w.Word)
	assert.Equal(t, "spam", w.Category)
	assert.True(t, w.IsActive)

	inactive := false
	_, err = env.wordlist.Update(ctx, w.ID, WordUpdate{IsActive: &inactive})
	require.NoError(t, err)

	again, err := env.wordlist.Add(ctx, "scamcoin", "spam")
	require.NoError(t, err)
	assert.Equal(t, w.ID, again.ID, "re-adding reuses the row")
	assert.True(t, again.IsActive)

	_, err = env.wordlist.Add(ctx, "   ", "spam")
	assert.ErrorIs(t, err, ErrEmptyWord)
}

func TestWordlist_LexiconFollowsMutations(t *testing.T) {
	env := newTestEnv(t)
	ctx := ctxT(t)
	text := "get your scamcoin today"

	lex, err := env.wordlist.Lexicon(ctx)
	require.NoError(t, err)
	assert.Equal(t, scoring.FloorScore, lex.Score(text).Spam)

	w, err := env.wordlist.Add(ctx, "scamcoin", "spam")
	require.NoError(t, err)
	lex, err = env.wordlist.Lexicon(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, lex.Score(text).Spam, 1e-9)

	inactive := false
	_, err = env.wordlist.Update(ctx, w.ID, WordUpdate{IsActive: &inactive})
	require.NoError(t, err)
	lex, err = env.wordlist.Lexicon(ctx)
	require.NoError(t, err)
	assert.Equal(t, scoring.FloorScore, lex.Score(text).Spam, "inactive words do not score")

	require.NoError(t, env.wordlist.Delete(ctx, w.ID))
	assert.ErrorIs(t, env.wordlist.Delete(ctx, w.ID), ErrWordNotFound)
}

func TestWordlist_SnapshotIsCached(t *testing.T) {
	env := newTestEnv(t)
	ctx := ctxT(t)

	first, err := env.wordlist.Lexicon(ctx)
	require.NoError(t, err)
	second, err := env.wordlist.Lexicon(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)

	env.wordlist.Invalidate()
	third, err := env.wordlist.Lexicon(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestWordlist_PhrasesAndCategories(t *testing.T) {
	env := newTestEnv(t)
	ctx := ctxT(t)

	_, err := env.wordlist.Add(ctx, "send me your password", "spam")
	require.NoError(t, err)
	_, err = env.wordlist.Add(ctx, "troll", "toxic")
	require.NoError(t, err)

	spam, err := env.wordlist.GetActiveWordsByCategory(ctx, "SPAM")
	require.NoError(t, err)
	assert.Equal(t, []string{"send me your password"}, spam)

	active, err := env.wordlist.ActiveWords(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	lex, err := env.wordlist.Lexicon(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, lex.Matches("spam", "Please SEND ME YOUR PASSWORD now"))
	assert.Equal(t, 0, lex.Matches("toxic", "trolling is a craft"), "single words match whole words only")

	words, err := env.wordlist.List(ctx, "toxic")
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, "troll", words[0].Word)

	blank := ""
	_, err = env.wordlist.Update(ctx, words[0].ID, WordUpdate{Word: &blank})
	assert.ErrorIs(t, err, ErrEmptyWord)
	_, err = env.wordlist.Update(ctx, 9999, WordUpdate{})
	assert.ErrorIs(t, err, ErrWordNotFound)
}

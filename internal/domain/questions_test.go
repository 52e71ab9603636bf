package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionState_AskAssignsFreshIDs(t *testing.T) {
	state := NewQuestionState()

	state, first := state.Ask("why generics?", 2)
	state, second := state.Ask("what about performance?", 2)

	assert.NotEqual(t, first, second)
	assert.Greater(t, second, first)
	assert.Equal(t, 2, state.Len())
}

func TestQuestionState_AskRecordsSlideAndText(t *testing.T) {
	state := NewQuestionState()

	state, id := state.Ask("how does batching work?", 7)

	q, ok := state.Get(id)
	require.True(t, ok)
	assert.Equal(t, "how does batching work?", q.Text)
	assert.Equal(t, 7, q.Slide)
	assert.False(t, q.Answered)
}

func TestQuestionState_ToggleFlipsAnswered(t *testing.T) {
	state := NewQuestionState()
	state, id := state.Ask("is this on?", 0)

	state = state.Toggle(id)
	q, _ := state.Get(id)
	assert.True(t, q.Answered)

	state = state.Toggle(id)
	q, _ = state.Get(id)
	assert.False(t, q.Answered)
}

func TestQuestionState_ToggleUnknownIDIsNoop(t *testing.T) {
	state := NewQuestionState()
	state, _ = state.Ask("real question", 1)

	toggled := state.Toggle(QuestionID(999))

	assert.Equal(t, state.List(), toggled.List())
}

func TestQuestionState_ValueSemantics(t *testing.T) {
	state := NewQuestionState()
	state, id := state.Ask("original", 1)

	// Deriving new states must not touch the snapshot we hold.
	_ = state.Toggle(id)
	_, _ = state.Ask("another", 2)

	q, ok := state.Get(id)
	require.True(t, ok)
	assert.False(t, q.Answered)
	assert.Equal(t, 1, state.Len())
}

func TestQuestionState_ListOrderedByID(t *testing.T) {
	state := NewQuestionState()
	state, _ = state.Ask("first", 0)
	state, _ = state.Ask("second", 1)
	state, _ = state.Ask("third", 1)

	list := state.List()

	require.Len(t, list, 3)
	assert.Equal(t, "first", list[0].Text)
	assert.Equal(t, "second", list[1].Text)
	assert.Equal(t, "third", list[2].Text)
}

func TestQuestionState_ZeroValueUsable(t *testing.T) {
	var state QuestionState

	state, id := state.Ask("works without constructor?", 0)

	assert.Equal(t, QuestionID(1), id)
	assert.Equal(t, 1, state.Len())
}

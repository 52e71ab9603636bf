package domain

import (
	"cmp"
	"slices"
)

// QuestionID identifies a question for the lifetime of the process.
// IDs are assigned monotonically and never reused.
type QuestionID uint64

// Question is a single audience question tied to the slide it was
// asked on.
type Question struct {
	ID       QuestionID `json:"id"`
	Text     string     `json:"text"`
	Slide    int        `json:"slide"`
	Answered bool       `json:"answered"`
}

// QuestionState holds all questions asked so far. It is a value type
// with copy-on-write semantics: Ask and Toggle return a new state and
// leave the receiver untouched, so a state already published to
// subscribers can never be mutated afterwards.
type QuestionState struct {
	questions map[QuestionID]Question
	nextID    QuestionID
}

// NewQuestionState returns an empty question state. The first assigned
// ID is 1, leaving 0 free as the zero value of QuestionID.
func NewQuestionState() QuestionState {
	return QuestionState{nextID: 1}
}

// Ask records a new question and returns the new state together with
// the ID assigned to it.
func (q QuestionState) Ask(text string, slide int) (QuestionState, QuestionID) {
	id := q.nextID
	if id == 0 {
		id = 1
	}

	next := q.clone()
	next.questions[id] = Question{ID: id, Text: text, Slide: slide}
	next.nextID = id + 1
	return next, id
}

// Toggle flips the answered flag of the given question. Toggling an
// unknown ID returns the state unchanged.
func (q QuestionState) Toggle(id QuestionID) QuestionState {
	question, ok := q.questions[id]
	if !ok {
		return q
	}

	next := q.clone()
	question.Answered = !question.Answered
	next.questions[id] = question
	return next
}

// Get looks up a question by ID.
func (q QuestionState) Get(id QuestionID) (Question, bool) {
	question, ok := q.questions[id]
	return question, ok
}

// Len returns the number of questions asked so far.
func (q QuestionState) Len() int {
	return len(q.questions)
}

// List returns all questions ordered by ID, oldest first.
func (q QuestionState) List() []Question {
	list := make([]Question, 0, len(q.questions))
	for _, question := range q.questions {
		list = append(list, question)
	}
	slices.SortFunc(list, func(a, b Question) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return list
}

func (q QuestionState) clone() QuestionState {
	questions := make(map[QuestionID]Question, len(q.questions)+1)
	for id, question := range q.questions {
		questions[id] = question
	}
	return QuestionState{questions: questions, nextID: q.nextID}
}

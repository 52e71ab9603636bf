package server

import (
	"encoding/json"

	"github.com/pscheid92/deckpulse/internal/domain"
)

// Message types pushed to clients.
const (
	msgTypeSlide      = "slide"
	msgTypeQuestions  = "questions"
	msgTypePopulation = "population"
	msgTypeVotes      = "votes"
)

// Message types read from clients.
const (
	msgTypeAsk            = "ask"
	msgTypeVote           = "vote"
	msgTypeNextSlide      = "next_slide"
	msgTypePrevSlide      = "prev_slide"
	msgTypeNextStep       = "next_step"
	msgTypePrevStep       = "prev_step"
	msgTypeToggleQuestion = "toggle_question"
)

// inboundMessage is the single wire shape for everything clients send.
// Fields are interpreted according to Type.
type inboundMessage struct {
	Type   string `json:"type"`
	Text   string `json:"text,omitempty"`
	Slide  int    `json:"slide,omitempty"`
	Topic  string `json:"topic,omitempty"`
	Choice string `json:"choice,omitempty"`
	ID     uint64 `json:"id,omitempty"`
}

type slideMessage struct {
	Type  string            `json:"type"`
	Slide domain.SlideState `json:"slide"`
}

type questionsMessage struct {
	Type      string            `json:"type"`
	Questions []domain.Question `json:"questions"`
}

type populationMessage struct {
	Type       string `json:"type"`
	Population int    `json:"population"`
}

type votesMessage struct {
	Type  string            `json:"type"`
	Votes []domain.CastVote `json:"votes"`
}

func encodeSlide(s domain.SlideState) ([]byte, error) {
	return json.Marshal(slideMessage{Type: msgTypeSlide, Slide: s})
}

func encodeQuestions(q domain.QuestionState) ([]byte, error) {
	return json.Marshal(questionsMessage{Type: msgTypeQuestions, Questions: q.List()})
}

func encodePopulation(p domain.Population) ([]byte, error) {
	return json.Marshal(populationMessage{Type: msgTypePopulation, Population: int(p)})
}

func encodeVotes(votes []domain.CastVote) ([]byte, error) {
	return json.Marshal(votesMessage{Type: msgTypeVotes, Votes: votes})
}

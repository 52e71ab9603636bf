package domain

// AdminCommand is the closed set of presenter-issued commands. The
// unexported marker method keeps the set sealed to this package, so
// the hub's dispatch switch stays total.
type AdminCommand interface{ adminCommand() }

// NextSlide advances the deck to the next slide.
type NextSlide struct{}

// PrevSlide moves the deck back one slide.
type PrevSlide struct{}

// NextStep reveals the next build step on the current slide.
type NextStep struct{}

// PrevStep hides the last revealed build step.
type PrevStep struct{}

// ToggleQuestion flips the answered flag of a question.
type ToggleQuestion struct {
	ID QuestionID
}

func (NextSlide) adminCommand()      {}
func (PrevSlide) adminCommand()      {}
func (NextStep) adminCommand()       {}
func (PrevStep) adminCommand()       {}
func (ToggleQuestion) adminCommand() {}

// UserCommand is the closed set of viewer-issued commands.
type UserCommand interface{ userCommand() }

// AskQuestion submits an audience question for the given slide.
type AskQuestion struct {
	Text  string
	Slide int
}

// SendVote casts a vote on a topic.
type SendVote struct {
	Topic  string
	Choice string
}

func (AskQuestion) userCommand() {}
func (SendVote) userCommand()    {}

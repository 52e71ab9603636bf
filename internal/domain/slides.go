package domain

// SlideState is the presenter's position in the deck: which slide is
// shown and which build step within that slide is revealed.
type SlideState struct {
	Slide int `json:"slide"`
	Step  int `json:"step"`
}

// NextSlide advances to the following slide. Changing slides always
// resets the step to zero.
func (s SlideState) NextSlide() SlideState {
	return SlideState{Slide: s.Slide + 1}
}

// PrevSlide moves back one slide, saturating at the first slide.
func (s SlideState) PrevSlide() SlideState {
	if s.Slide == 0 {
		return SlideState{}
	}
	return SlideState{Slide: s.Slide - 1}
}

// NextStep reveals the next build step on the current slide.
func (s SlideState) NextStep() SlideState {
	return SlideState{Slide: s.Slide, Step: s.Step + 1}
}

// PrevStep hides the last revealed step, saturating at zero.
func (s SlideState) PrevStep() SlideState {
	if s.Step == 0 {
		return s
	}
	return SlideState{Slide: s.Slide, Step: s.Step - 1}
}

package domain

// Population counts currently connected viewers.
type Population int

// AddOne counts a viewer joining.
func (p Population) AddOne() Population {
	return p + 1
}

// RemoveOne counts a viewer leaving. A departure that would take the
// count below zero is absorbed, so duplicate leave events cannot drive
// the population negative.
func (p Population) RemoveOne() Population {
	if p <= 0 {
		return 0
	}
	return p - 1
}

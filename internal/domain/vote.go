package domain

// UserID identifies a connected viewer. The server assigns one per
// connection; it is opaque beyond equality.
type UserID string

// CastVote is a single vote as it travels from a viewer through the
// vote queue into the batcher.
type CastVote struct {
	User   UserID `json:"user"`
	Topic  string `json:"topic"`
	Choice string `json:"choice"`
}

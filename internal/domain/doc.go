// Package domain defines the presentation state model and the command
// vocabulary of the hub.
//
// All state types are immutable values: every transition returns a new
// value instead of mutating the receiver, so snapshots handed to
// subscribers never change underneath them. No goroutines, no locks -
// concurrency is the hub's problem, not the model's.
package domain

// Package services implements the reply-generation core of the relay: the
// admission gate, context assembly, tiered completion engine, response
// shaping, and the responder that ties them to the transport and stores.
// This file centralizes the service-level error values.
package services

import "errors"

var (
	// ErrNoResponse signals that every model tier exhausted its attempts.
	// Callers treat this as "skip this turn", never as a fatal condition.
	ErrNoResponse = errors.New("no response from any model")

	// ErrEmptyReply signals that the model produced nothing usable after
	// shaping; the turn is suppressed silently.
	ErrEmptyReply = errors.New("empty reply after shaping")
)

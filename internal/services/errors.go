// Package services holds the correlation engine that pairs outbound questions
// with the replies that answer them, plus the dispatcher and sweeper built on
// top of it.
//
// Errors declared here are returned by Engine methods; translation into chat
// text or HTTP codes happens in the callers.
package services

import "errors"

var (
	// ErrTransport indicates the chat platform rejected or failed a send.
	ErrTransport = errors.New("transport failure")

	// ErrDuplicateKey is returned by Ask when the sent message's correlation
	// key is already pending. The existing record is left untouched.
	ErrDuplicateKey = errors.New("duplicate correlation key")
)

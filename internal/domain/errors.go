package domain

import "errors"

var (
	ErrConfiguration = errors.New("council configuration error")
	ErrUnknownMode   = errors.New("unknown council mode")
	ErrEmptyQuestion = errors.New("question is empty")
	ErrProvider      = errors.New("provider call failed")
	ErrMalformedVote = errors.New("malformed vote")
	ErrNoResponses   = errors.New("no council member produced a response")
	ErrSynthesis     = errors.New("prime minister synthesis failed")
	ErrLogging       = errors.New("audit log append failed")
	ErrModelNotFound = errors.New("model not found")
)

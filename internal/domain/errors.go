package domain

import "errors"

// Sentinel errors for the processing pipeline and its HTTP surface.
// Callers classify with errors.Is; messages carry the human-readable
// detail via fmt.Errorf wrapping.
var (
	ErrUnauthorized        = errors.New("caller does not own this session")
	ErrNotFound            = errors.New("not found")
	ErrPayloadTooLarge     = errors.New("payload exceeds maximum size")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrSummarizationFailed = errors.New("summarization failed")
	ErrDecodeFailed        = errors.New("audio decode failed")
	ErrConflict            = errors.New("conflict")
	ErrStore               = errors.New("store failure")
	ErrUnknownProfile      = errors.New("unknown profile")
)

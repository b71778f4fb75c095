package models

import "errors"

var (
	// ErrDocumentLoad is returned when the source document is missing or unparsable.
	ErrDocumentLoad = errors.New("document load failed")
	// ErrStoreWrite is returned on id collisions or when the store cannot be written.
	ErrStoreWrite = errors.New("store write failed")
	// ErrGeneration is returned when the answer generator fails.
	ErrGeneration = errors.New("generation failed")
)

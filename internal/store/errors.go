package store

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors. Every error returned by a store, the resolver or the query
// engine wraps exactly one of these, so callers classify with errors.Is.
var (
	ErrNotFound   = goerr.New("not found")
	ErrValidation = goerr.New("validation failed")
	ErrIntegrity  = goerr.New("integrity violation")
	ErrConflict   = goerr.New("conflict")
)

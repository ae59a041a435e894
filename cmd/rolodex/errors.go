package main

import (
	"context"
	"errors"

	"rolodex/internal/config"
	"rolodex/internal/store"
)

const (
	exitFailure    = 1
	exitValidation = 2
	exitNotFound   = 3
	exitConflict   = 4
	exitIntegrity  = 5
	exitCanceled   = 130
)

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, store.ErrNotFound):
		return exitNotFound
	case errors.Is(err, store.ErrValidation), errors.Is(err, config.ErrInvalid):
		return exitValidation
	case errors.Is(err, store.ErrConflict):
		return exitConflict
	case errors.Is(err, store.ErrIntegrity):
		return exitIntegrity
	case errors.Is(err, context.Canceled):
		return exitCanceled
	default:
		return exitFailure
	}
}

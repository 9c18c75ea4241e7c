package store

import (
	"errors"
	"fmt"
)

var ErrPortfolioNotFound = errors.New("portfolio not found")

// PersistenceError reports a failed batch. The batch was rolled back as a whole.
type PersistenceError struct {
	Table string
	Batch int
	Err   error
}

func (e *PersistenceError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("batch %d: %v", e.Batch, e.Err)
	}
	return fmt.Sprintf("batch %d: write %s: %v", e.Batch, e.Table, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

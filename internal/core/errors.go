// ABOUTME: Error kinds shared by the retrieval pipeline
// ABOUTME: Concrete errors wrap a kind so callers can branch with errors.Is
package core

import (
	"errors"
	"fmt"
)

// Error kinds
var (
	ErrValidation = errors.New("validation error")
	ErrEmbedding  = errors.New("embedding error")
	ErrStorage    = errors.New("storage error")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func embeddingErr(err error) error {
	return fmt.Errorf("%w: %w", ErrEmbedding, err)
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

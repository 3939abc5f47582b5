package chain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput covers every request the caller must fix.
	ErrInvalidInput = errors.New("invalid input")
	ErrTextRequired = fmt.Errorf("%w: text is required", ErrInvalidInput)
	ErrTextTooLong  = fmt.Errorf("%w: text too long", ErrInvalidInput)

	// ErrProviderUnavailable matches every ProviderError.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrSynthesisFailure means every provider failed, including the
	// synthetic one. It should not happen.
	ErrSynthesisFailure = errors.New("synthesis failed")

	// ErrShortAudio is the cause recorded when a provider returns fewer
	// than MinAudioBytes.
	ErrShortAudio = errors.New("provider returned too little audio")
)

// MinAudioBytes is the smallest artifact accepted from any provider.
const MinAudioBytes = 100

// ProviderError records one failed attempt.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderUnavailable
}

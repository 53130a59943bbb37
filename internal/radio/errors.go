package radio

import (
	"errors"
	"fmt"

	"github.com/airadio/api/internal/model"
)

var (
	// ErrNoSongsFound is returned when the catalog has nothing for an artist.
	ErrNoSongsFound = errors.New("no songs found")
	// ErrProviderError wraps the last failure of an exhausted provider call.
	ErrProviderError = errors.New("provider error")
	// ErrMalformedResponse marks provider output that could not be parsed.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrAssemblyFailed is returned when the final audio is missing or empty.
	ErrAssemblyFailed = errors.New("assembly failed")
)

// StageError reports the pipeline stage a run failed in
type StageError struct {
	Stage model.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func noSongsFound(artist string) error {
	return fmt.Errorf("%w for artist '%s'", ErrNoSongsFound, artist)
}

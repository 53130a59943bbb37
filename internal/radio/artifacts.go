package radio

import (
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/airadio/api/internal/model"
)

// ArtifactSet tracks every file a run created so a failed run can remove
// them. Songs are never tracked.
type ArtifactSet struct {
	mu    sync.Mutex
	items []model.AudioArtifact
}

// Add tracks a. Song artifacts are ignored.
func (s *ArtifactSet) Add(a model.AudioArtifact) {
	if a.Role == model.RoleSong || a.Path == "" {
		return
	}
	s.mu.Lock()
	s.items = append(s.items, a)
	s.mu.Unlock()
}

// Cleanup deletes every tracked file. Files already gone are not an error.
// It returns the number of files removed.
func (s *ArtifactSet) Cleanup(log zerolog.Logger) int {
	s.mu.Lock()
	items := s.items
	s.items = nil
	s.mu.Unlock()

	removed := 0
	for _, a := range items {
		err := os.Remove(a.Path)
		switch {
		case err == nil:
			removed++
		case errors.Is(err, fs.ErrNotExist):
		default:
			log.Warn().Err(err).Str("path", a.Path).Msg("failed to remove artifact")
		}
	}
	if len(items) > 0 {
		log.Info().Int("removed", removed).Int("tracked", len(items)).Msg("cleaned up artifacts")
	}
	return removed
}

package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/airadio/api/internal/model"
)

// TranscriptPath is the side-car location for a song's transcript
func TranscriptPath(song model.Song) string {
	return strings.TrimSuffix(song.Path, filepath.Ext(song.Path)) + ".json"
}

// LoadTranscript reads the cached transcript of song. ok is false when no
// side-car exists.
func LoadTranscript(song model.Song) (model.SongTranscript, bool, error) {
	var t model.SongTranscript

	data, err := os.ReadFile(TranscriptPath(song))
	if errors.Is(err, fs.ErrNotExist) {
		return t, false, nil
	}
	if err != nil {
		return t, false, fmt.Errorf("read transcript: %w", err)
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return t, false, fmt.Errorf("decode transcript %s: %w", TranscriptPath(song), err)
	}
	return t, true, nil
}

// SaveTranscript writes the side-car by replacing it atomically, so
// concurrent writers never leave a torn file.
func SaveTranscript(song model.Song, t model.SongTranscript) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}

	target := TranscriptPath(song)
	tmp, err := os.CreateTemp(filepath.Dir(target), ".transcript-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp transcript: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write transcript: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close transcript: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("replace transcript: %w", err)
	}
	return nil
}

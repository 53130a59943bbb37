package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/airadio/api/internal/model"
)

// Catalog lists an artist's songs in play order. An unknown artist yields
// an empty list, not an error.
type Catalog interface {
	SongsForArtist(ctx context.Context, artist string) ([]model.Song, error)
}

var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
}

// FSCatalog reads songs from <root>/<artist>/<song>.<ext>
type FSCatalog struct {
	root string
}

// NewFSCatalog creates a catalog rooted at musicDir
func NewFSCatalog(musicDir string) *FSCatalog {
	return &FSCatalog{root: musicDir}
}

// SongsForArtist returns the artist's audio files sorted by name.
// The artist directory is matched case-insensitively.
func (c *FSCatalog) SongsForArtist(ctx context.Context, artist string) ([]model.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, name, err := c.artistDir(artist)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return []model.Song{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read artist dir: %w", err)
	}

	songs := make([]model.Song, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !audioExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		songs = append(songs, model.Song{
			Name:   strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			Artist: name,
			Path:   filepath.Join(dir, e.Name()),
		})
	}
	sort.Slice(songs, func(i, j int) bool { return songs[i].Path < songs[j].Path })
	return songs, nil
}

// Artists lists artist directory names
func (c *FSCatalog) Artists(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(c.root)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read music dir: %w", err)
	}

	artists := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			artists = append(artists, e.Name())
		}
	}
	sort.Strings(artists)
	return artists, nil
}

func (c *FSCatalog) artistDir(artist string) (string, string, error) {
	artist = strings.TrimSpace(artist)
	if artist == "" || strings.ContainsAny(artist, `/\`) || artist == "." || artist == ".." {
		return "", "", nil
	}

	entries, err := os.ReadDir(c.root)
	if errors.Is(err, fs.ErrNotExist) {
		return "", "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("read music dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() && strings.EqualFold(e.Name(), artist) {
			return filepath.Join(c.root, e.Name()), e.Name(), nil
		}
	}
	return "", "", nil
}

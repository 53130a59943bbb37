package radio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/airadio/api/internal/model"
)

type fakeLLM struct {
	mu      sync.Mutex
	calls   []string
	respond func(system, user string) (string, error)
}

func (f *fakeLLM) Complete(ctx context.Context, system, user string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, user)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.respond == nil {
		return "", errors.New("no response configured")
	}
	return f.respond(system, user)
}

func (f *fakeLLM) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// radioLLM answers each prompt kind with a canned response.
func radioLLM() *fakeLLM {
	return &fakeLLM{respond: func(system, user string) (string, error) {
		switch {
		case strings.Contains(user, "voice production assistant"):
			return `[{"audio": "Good evening.", "speed": 0.95, "break_after": 800},
{"audio": "This is your late show.", "speed": 1.0, "break_after": 500},
{"audio": "Here's the first track.", "speed": 1.05, "break_after": 600}]`, nil
		case strings.Contains(user, "transition between songs"):
			return "What a song. Up next, something softer.", nil
		case strings.Contains(user, "opening phrase"):
			return `"Gooood Eveniiing Everyone!"`, nil
		default:
			return "Good evening. This is your late show. Here's the first track.", nil
		}
	}}
}

type fakeSynth struct {
	mu    sync.Mutex
	calls []string
	fail  func(text string) bool
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string, speed float64) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()
	if f.fail != nil && f.fail(text) {
		return nil, errors.New("tts unavailable")
	}
	return []byte("<" + text + ">"), nil
}

func (f *fakeSynth) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeTranscriber struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return "lyrics of " + filepath.Base(audioPath), nil
}

type report struct {
	stage   model.Stage
	percent int
}

type fakeProgress struct {
	mu      sync.Mutex
	reports []report
	result  model.JobResult
}

func (p *fakeProgress) Report(stage model.Stage, percent int, message string) {
	p.mu.Lock()
	p.reports = append(p.reports, report{stage, percent})
	p.mu.Unlock()
}

func (p *fakeProgress) Record(fn func(*model.JobResult)) {
	p.mu.Lock()
	fn(&p.result)
	p.mu.Unlock()
}

// writeSongs creates <dir>/<artist>/<name>.mp3 files holding their name.
func writeSongs(t *testing.T, dir, artist string, names ...string) []model.Song {
	t.Helper()
	artistDir := filepath.Join(dir, artist)
	if err := os.MkdirAll(artistDir, 0o755); err != nil {
		t.Fatal(err)
	}
	var songs []model.Song
	for _, n := range names {
		path := filepath.Join(artistDir, n+".mp3")
		if err := os.WriteFile(path, []byte("["+n+"]"), 0o644); err != nil {
			t.Fatal(err)
		}
		songs = append(songs, model.Song{Name: n, Artist: artist, Path: path})
	}
	return songs
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

type fakeStorage struct {
	mu        sync.Mutex
	uploaded  []string
	signed    []time.Duration
	uploadErr error
}

func (s *fakeStorage) UploadFile(ctx context.Context, key, path, contentType string) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.mu.Lock()
	s.uploaded = append(s.uploaded, key)
	s.mu.Unlock()
	return "https://cdn.example/" + key, nil
}

func (s *fakeStorage) GetSignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	s.mu.Lock()
	s.signed = append(s.signed, expiry)
	s.mu.Unlock()
	return "https://bucket.example/" + key + "?sig=1", nil
}

package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSong(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "song.mp3")
	if err := os.WriteFile(path, []byte("ID3fake"), 0o644); err != nil {
		t.Fatalf("write song: %v", err)
	}
	return path
}

func TestWhisperTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/transcriptions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-test" {
			t.Errorf("unexpected model %q", got)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file: %v", err)
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "song.mp3" || string(data) != "ID3fake" {
			t.Errorf("unexpected upload %s %q", hdr.Filename, data)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"text":" la la la "}`)
	}))
	t.Cleanup(srv.Close)

	c := NewWhisperClient("groq", "test-key", srv.URL, "whisper-test")
	got, err := c.Transcribe(context.Background(), writeSong(t))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if got != "la la la" {
		t.Errorf("unexpected transcript %q", got)
	}
}

func TestWhisperTranscribeAPIError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"error":{"message":"busy"}}`)
	}))
	t.Cleanup(srv.Close)

	c := NewWhisperClient("openai", "test-key", srv.URL, "whisper-1")
	if _, err := c.Transcribe(context.Background(), writeSong(t)); err == nil {
		t.Fatal("expected error for 503")
	}
	if calls != 1 {
		t.Errorf("expected a single request, got %d", calls)
	}
}

func TestWhisperNotConfigured(t *testing.T) {
	c := NewWhisperClient("groq", "", "http://127.0.0.1:1", "whisper-test")
	if _, err := c.Transcribe(context.Background(), "missing.mp3"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

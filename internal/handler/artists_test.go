package handler_test

import (
	"net/http"
	"testing"
)

func TestArtists_List(t *testing.T) {
	ta := setupApp(t, true)

	resp, err := doRequest(ta.app, http.MethodGet, "/api/artists", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	artists, ok := result["artists"].([]interface{})
	if !ok || len(artists) != 1 || artists[0] != "nova" {
		t.Errorf("unexpected artists %v", result["artists"])
	}
}

func TestArtists_Songs(t *testing.T) {
	ta := setupApp(t, true)

	resp, err := doRequest(ta.app, http.MethodGet, "/api/artists/NOVA/songs", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	if result["artist"] != "Nova" {
		t.Errorf("expected catalog spelling 'Nova', got %v", result["artist"])
	}
	songs, _ := result["songs"].([]interface{})
	if len(songs) != 2 {
		t.Errorf("expected 2 songs, got %d", len(songs))
	}
}

func TestArtists_SongsUnknown(t *testing.T) {
	ta := setupApp(t, true)

	resp, err := doRequest(ta.app, http.MethodGet, "/api/artists/nobody/songs", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)
	assertErrorCode(t, parseJSON(t, resp), "NOT_FOUND")
}

package handler

import (
	"context"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/airadio/api/internal/model"
	"github.com/airadio/api/pkg/response"
)

// ArtistLister is the read side of the song catalog
type ArtistLister interface {
	Artists(ctx context.Context) ([]string, error)
	SongsForArtist(ctx context.Context, artist string) ([]model.Song, error)
}

type ArtistHandler struct {
	catalog ArtistLister
}

func NewArtistHandler(catalog ArtistLister) *ArtistHandler {
	return &ArtistHandler{catalog: catalog}
}

// List handles GET /api/artists
func (h *ArtistHandler) List(c *fiber.Ctx) error {
	artists, err := h.catalog.Artists(c.Context())
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, fiber.Map{"artists": artists})
}

// Songs handles GET /api/artists/:name/songs
func (h *ArtistHandler) Songs(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil || name == "" {
		return response.ValidationError(c, "Artist name is required", nil)
	}

	songs, err := h.catalog.SongsForArtist(c.Context(), name)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	if len(songs) == 0 {
		return response.NotFound(c, "No songs found for artist '"+name+"'")
	}
	return response.OK(c, fiber.Map{"artist": songs[0].Artist, "songs": songs})
}

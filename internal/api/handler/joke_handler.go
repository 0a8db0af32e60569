package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// seedJokes is the static catalogue served when the cache is cold.
var seedJokes = []string{
	"Why don't scientists trust atoms? Because they make up everything!",
	"What did one ocean say to the other ocean? Nothing, they just waved.",
	"Why did the scarecrow win an award? Because he was outstanding in his field!",
	"How does a penguin build its house? Igloos it together.",
	"Why don't skeletons fight each other? They don't have the guts.",
}

// JokeCache is the read-through cache used by the jokes endpoint.
type JokeCache interface {
	Get(ctx context.Context) ([]string, error)
	Set(ctx context.Context, jokes []string) error
}

// JokeHandler serves the static joke catalogue with a cache-aside layer. A
// cache failure degrades to the seed data rather than failing the request.
type JokeHandler struct {
	cache JokeCache
	log   zerolog.Logger
}

func NewJokeHandler(cache JokeCache, log zerolog.Logger) *JokeHandler {
	return &JokeHandler{cache: cache, log: log}
}

// List handles GET /api/jokes.
//
// @Summary      List jokes
// @Tags         jokes
// @Produce      json
// @Success      200  {array}  string
// @Router       /jokes [get]
func (h *JokeHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	if h.cache != nil {
		jokes, err := h.cache.Get(ctx)
		if err != nil {
			h.log.Warn().Err(err).Msg("joke cache read failed")
		} else if jokes != nil {
			return c.JSON(http.StatusOK, jokes)
		} else if err := h.cache.Set(ctx, seedJokes); err != nil {
			h.log.Warn().Err(err).Msg("joke cache write failed")
		}
	}

	return c.JSON(http.StatusOK, seedJokes)
}

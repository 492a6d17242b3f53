package handlers

import (
	"net/http"

	"visitor_access_go/services"

	"github.com/labstack/echo/v4"
)

type healthResponse struct {
	Status   string `json:"status"`
	Sessions string `json:"sessions"`
	Photos   string `json:"photos"`
}

// Health reports liveness and which session and photo backends are in use
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:   "ok",
		Sessions: sessionStoreName(h.store),
		Photos:   h.storage.Name(),
	})
}

func sessionStoreName(store services.SessionStore) string {
	switch store.(type) {
	case *services.RedisSessionStore:
		return "redis"
	case *services.MemorySessionStore:
		return "memory"
	default:
		return "custom"
	}
}

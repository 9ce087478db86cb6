package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dkeye/voxroom/internal/app/orch"
	"github.com/dkeye/voxroom/internal/core"
	"github.com/dkeye/voxroom/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type roomHandlers struct {
	orch    *orch.Orchestrator
	history core.MessageStore
}

// GET /api/rooms: live rooms with member counts
func (h *roomHandlers) list(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.orch.ListRooms()})
}

// GET /api/rooms/:id/users: current roster
func (h *roomHandlers) users(c *gin.Context) {
	users, err := h.orch.RoomUsers(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.NewErrorEvent(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomId": c.Param("id"), "users": users})
}

// GET /api/rooms/:id/messages?type=voice&limit=50: stored history, oldest first
func (h *roomHandlers) messages(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history not available"})
		return
	}
	room, err := domain.ParseRoomID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.NewErrorEvent(err))
		return
	}
	q := core.HistoryQuery{RoomID: room, Type: domain.MessageType(c.Query("type"))}
	if q.Type != "" && !q.Type.Valid() {
		c.JSON(http.StatusBadRequest, domain.NewErrorEvent(domain.ErrBadPayload))
		return
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, domain.NewErrorEvent(domain.ErrBadPayload))
			return
		}
		q.Limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	msgs, err := h.history.History(ctx, q)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("room", string(room)).Msg("history")
		c.JSON(http.StatusInternalServerError, domain.NewErrorEvent(errors.Join(domain.ErrPersistence, err)))
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomId": room, "messages": msgs})
}

func healthHandler(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":      "ok",
			"connections": d.Orch.Registry.Len(),
			"rooms":       len(d.Orch.ListRooms()),
		}
		if d.Ready != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := d.Ready(ctx); err != nil {
				body["status"] = "degraded"
				body["error"] = err.Error()
				c.JSON(http.StatusServiceUnavailable, body)
				return
			}
		}
		c.JSON(http.StatusOK, body)
	}
}

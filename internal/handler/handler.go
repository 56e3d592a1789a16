package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/recovery-api/internal/model"
)

// Context keys set by the auth middleware.
const (
	ContextActorID   = "actorID"
	ContextActorRole = "actorRole"
)

// CurrentActor reads the authenticated actor the auth middleware stored on
// the request context.
func CurrentActor(c *gin.Context) (model.Actor, bool) {
	id, err := uuid.Parse(c.GetString(ContextActorID))
	if err != nil {
		return model.Actor{}, false
	}
	role := model.Role(c.GetString(ContextActorRole))
	if !role.Valid() {
		return model.Actor{}, false
	}
	return model.Actor{ID: id, Role: role}, true
}

// MustActor aborts with 401 when no authenticated actor is present.
func MustActor(c *gin.Context) (model.Actor, bool) {
	actor, ok := CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse("authentication required"))
		c.Abort()
	}
	return actor, ok
}

// ParseWindow reads optional start/end query parameters (RFC 3339). A nil
// result means "use the default window".
func ParseWindow(c *gin.Context) (*model.TimeRange, error) {
	startRaw := c.Query("start")
	endRaw := c.Query("end")
	if startRaw == "" && endRaw == "" {
		return nil, nil
	}

	var window model.TimeRange
	var err error
	if startRaw != "" {
		if window.Start, err = time.Parse(time.RFC3339, startRaw); err != nil {
			return nil, err
		}
	}
	if endRaw != "" {
		if window.End, err = time.Parse(time.RFC3339, endRaw); err != nil {
			return nil, err
		}
	}
	return &window, nil
}

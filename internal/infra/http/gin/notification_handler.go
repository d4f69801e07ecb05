package ginserver

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	notificationsapp "staybook/internal/app/handlers/notifications"
	"staybook/internal/app/queries"
	"staybook/internal/infra/realtime"
)

// Subscriber opens a live notification stream for a user.
type Subscriber interface {
	Subscribe(userID string) (<-chan realtime.Event, func())
}

type NotificationsHandler struct {
	Commands  commands.Bus
	Queries   queries.Bus
	Live      Subscriber
	Logger    *slog.Logger
	Heartbeat time.Duration
}

func (h NotificationsHandler) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "limit must be a number")
			return
		}
		limit = n
	}
	q := notificationsapp.ListQuery{Actor: principalFrom(c), Limit: limit}
	result, err := queries.Ask[notificationsapp.ListQuery, dto.NotificationCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h NotificationsHandler) MarkRead(c *gin.Context) {
	cmd := notificationsapp.MarkReadCommand{Actor: principalFrom(c), NotificationID: c.Param("id")}
	if _, err := commands.Dispatch[notificationsapp.MarkReadCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Stream pushes live notifications as server-sent events until the client
// goes away.
func (h NotificationsHandler) Stream(c *gin.Context) {
	p := principalFrom(c)
	if p.IsAnonymous() {
		writeError(c, h.Logger, ErrSignInNeeded)
		return
	}
	if h.Live == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, errorBody{Status: http.StatusServiceUnavailable, Message: "live notifications unavailable"})
		return
	}
	events, cancel := h.Live.Subscribe(p.UserID)
	defer cancel()

	heartbeat := h.Heartbeat
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("notification", ev)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		}
	})
}

var _ NotificationHTTP = NotificationsHandler{}

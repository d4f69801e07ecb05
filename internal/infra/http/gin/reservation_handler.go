package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	reservationsapp "staybook/internal/app/handlers/reservations"
	"staybook/internal/app/queries"
)

type ReservationsHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createReservationRequest struct {
	PropertyID string `json:"property_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

func (h ReservationsHandler) Create(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed reservation request")
		return
	}
	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	cmd := reservationsapp.CreateCommand{
		CommandID:       uuid.NewString(),
		Actor:           principalFrom(c),
		PropertyID:      req.PropertyID,
		StartDate:       start,
		EndDate:         end,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[reservationsapp.CreateCommand, *reservationsapp.CreateResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ReservationsHandler) ListMine(c *gin.Context) {
	q := reservationsapp.ListMineQuery{Actor: principalFrom(c)}
	result, err := queries.Ask[reservationsapp.ListMineQuery, dto.ReservationCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationsHandler) Get(c *gin.Context) {
	q := reservationsapp.GetQuery{Actor: principalFrom(c), ReservationID: c.Param("id")}
	result, err := queries.Ask[reservationsapp.GetQuery, dto.Reservation](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationsHandler) ListForProperty(c *gin.Context) {
	q := reservationsapp.ListForPropertyQuery{Actor: principalFrom(c), PropertyID: c.Param("id")}
	result, err := queries.Ask[reservationsapp.ListForPropertyQuery, dto.ReservationCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationsHandler) Cancel(c *gin.Context) {
	cmd := reservationsapp.CancelCommand{Actor: principalFrom(c), ReservationID: c.Param("id")}
	result, err := commands.Dispatch[reservationsapp.CancelCommand, dto.Reservation](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationsHandler) Finish(c *gin.Context) {
	cmd := reservationsapp.FinishCommand{Actor: principalFrom(c), ReservationID: c.Param("id")}
	result, err := commands.Dispatch[reservationsapp.FinishCommand, dto.Reservation](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationsHandler) Delete(c *gin.Context) {
	cmd := reservationsapp.DeleteCommand{Actor: principalFrom(c), ReservationID: c.Param("id")}
	if _, err := commands.Dispatch[reservationsapp.DeleteCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type adjustPointsRequest struct {
	UserPoints int64 `json:"user_points"`
	HostPoints int64 `json:"host_points"`
}

func (h ReservationsHandler) AdjustPoints(c *gin.Context) {
	var req adjustPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed points request")
		return
	}
	cmd := reservationsapp.AdjustPointsCommand{
		Actor:         principalFrom(c),
		ReservationID: c.Param("id"),
		UserPoints:    req.UserPoints,
		HostPoints:    req.HostPoints,
	}
	result, err := commands.Dispatch[reservationsapp.AdjustPointsCommand, dto.Reservation](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ReservationHTTP = ReservationsHandler{}

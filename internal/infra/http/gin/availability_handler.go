package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/dto"
	availabilityapp "staybook/internal/app/handlers/availability"
	"staybook/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

// Check answers GET /properties/:id/availability?start=...&end=...
func (h AvailabilityHandler) Check(c *gin.Context) {
	start, end, err := parseRange(c.Query("start"), c.Query("end"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	q := availabilityapp.CheckQuery{PropertyID: c.Param("id"), StartDate: start, EndDate: end}
	result, err := queries.Ask[availabilityapp.CheckQuery, dto.Availability](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}

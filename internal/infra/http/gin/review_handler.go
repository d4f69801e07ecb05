package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	reviewsapp "staybook/internal/app/handlers/reviews"
)

type ReviewsHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

type submitReviewRequest struct {
	ReservationID string `json:"reservation_id"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
}

type updateReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h ReviewsHandler) Submit(c *gin.Context) {
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed review")
		return
	}
	cmd := reviewsapp.SubmitCommand{
		Actor:         principalFrom(c),
		ReservationID: req.ReservationID,
		Rating:        req.Rating,
		Comment:       req.Comment,
	}
	result, err := commands.Dispatch[reviewsapp.SubmitCommand, dto.ReviewResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ReviewsHandler) Update(c *gin.Context) {
	var req updateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed review")
		return
	}
	cmd := reviewsapp.UpdateCommand{
		Actor:    principalFrom(c),
		ReviewID: c.Param("id"),
		Rating:   req.Rating,
		Comment:  req.Comment,
	}
	result, err := commands.Dispatch[reviewsapp.UpdateCommand, dto.ReviewResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReviewsHandler) Delete(c *gin.Context) {
	cmd := reviewsapp.DeleteCommand{Actor: principalFrom(c), ReviewID: c.Param("id")}
	result, err := commands.Dispatch[reviewsapp.DeleteCommand, dto.RatingSummary](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ReviewHTTP = ReviewsHandler{}

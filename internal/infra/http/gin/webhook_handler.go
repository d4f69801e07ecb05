package ginserver

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/policies"
	"staybook/internal/domain/payment"
)

const maxWebhookBody = 64 << 10

// OutcomeParser authenticates a processor callback and decodes it.
type OutcomeParser interface {
	Parse(payload []byte, signature string) (payment.Outcome, error)
}

// PaymentsWebhookHandler acknowledges processor callbacks once their
// outcome is queued; reconciliation happens asynchronously.
type PaymentsWebhookHandler struct {
	Parser    OutcomeParser
	Publisher policies.OutcomePublisher
	Logger    *slog.Logger
}

func (h PaymentsWebhookHandler) Receive(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil {
		badRequest(c, "unreadable payload")
		return
	}
	if len(payload) > maxWebhookBody {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, errorBody{Status: http.StatusRequestEntityTooLarge, Message: "payload too large"})
		return
	}
	outcome, err := h.Parser.Parse(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("payment webhook rejected", "err", err)
		}
		writeError(c, h.Logger, err)
		return
	}
	if err := outcome.Validate(); err != nil {
		if errors.Is(err, payment.ErrInvalidOutcome) && h.Logger != nil {
			h.Logger.Warn("dropping payment outcome", "outcome_id", outcome.ID, "type", string(outcome.Type), "err", err)
		}
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if err := h.Publisher.Publish(c.Request.Context(), outcome); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

var _ PaymentsWebhookHTTP = PaymentsWebhookHandler{}

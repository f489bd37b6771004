package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/formpay/internal/payment/intent"
)

const idempotencyKeyHeader = "Idempotency-Key"

type createPaymentIntentRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Email    string            `json:"email"`
	FormID   string            `json:"formId"`
	Metadata map[string]string `json:"metadata"`
}

func (s *Server) CreatePaymentIntent(c *gin.Context) {
	var req createPaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.intents.CreateIntent(c.Request.Context(), intent.Request{
		Amount:         req.Amount,
		Currency:       req.Currency,
		Email:          req.Email,
		FormID:         req.FormID,
		Metadata:       req.Metadata,
		IdempotencyKey: strings.TrimSpace(c.GetHeader(idempotencyKeyHeader)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"clientSecret": resp.ClientSecret})
}

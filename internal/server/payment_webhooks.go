package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/formpay/internal/payment/stripe"
	"github.com/smallbiznis/formpay/pkg/telemetry/correlation"
)

// maxWebhookBody bounds a single provider delivery.
const maxWebhookBody = 1 << 20

// HandlePaymentWebhook verifies the raw body as delivered. It must not be
// re-serialized before verification.
func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil || len(payload) > maxWebhookBody {
		AbortWithError(c, invalidRequestError())
		return
	}

	res, err := s.webhooks.Process(c.Request.Context(), payload, c.GetHeader(stripe.SignatureHeader))
	if res.CorrelationID != "" {
		c.Header(correlation.Header, res.CorrelationID)
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/viptagger/internal/observability/metrics"
	"go.uber.org/zap"
)

const (
	signatureHeader = "X-Shopify-Hmac-Sha256"

	// Shopify order payloads are small; anything past this is hostile.
	maxWebhookBody = 1 << 20
)

// HandleOrderWebhook serves orders/create and orders/paid deliveries.
// The signature is checked against the raw body before anything is
// parsed; rejected deliveries produce no side effects.
func (s *Server) HandleOrderWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.verifier.Verify(body, c.GetHeader(signatureHeader)); err != nil {
		metrics.Default().IncWebhookEvent(metrics.WebhookResultInvalidSignature)
		s.log.Warn("rejected webhook with invalid signature",
			zap.String("topic", c.GetHeader("X-Shopify-Topic")),
			zap.String("remote_addr", c.ClientIP()),
		)
		AbortWithError(c, err)
		return
	}

	// Signature verified: everything past this point is acknowledged. A
	// payload that cannot be parsed will not parse on re-delivery either, so
	// failing the request would only make the platform retry forever.
	if err := s.dispatcher.Dispatch(body); err != nil {
		s.log.Warn("failed to dispatch webhook payload", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Home reports service identity and the active classification policy.
func (s *Server) Home(c *gin.Context) {
	policy := s.policies.Get()
	c.JSON(http.StatusOK, gin.H{
		"service":       s.cfg.AppName,
		"status":        "running",
		"vip_tag":       policy.VIPTag,
		"vip_threshold": fmt.Sprintf("%s%.2f", policy.CurrencySymbol, policy.SpendThreshold),
	})
}

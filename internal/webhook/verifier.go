package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/smallbiznis/viptagger/internal/config"
	"go.uber.org/zap"
)

// ErrInvalidSignature marks webhook authentication failure. Rejected
// deliveries are never classified.
var ErrInvalidSignature = errors.New("invalid_signature")

// Verifier authenticates inbound webhook deliveries against the shared
// secret: base64(HMAC-SHA256(secret, raw body)).
type Verifier struct {
	secret []byte
}

func NewVerifier(cfg config.Config, log *zap.Logger) *Verifier {
	secret := strings.TrimSpace(cfg.WebhookSecret)
	if secret == "" {
		log.Named("webhook.verifier").Warn("webhook secret not configured, signature verification disabled")
		return &Verifier{}
	}
	return &Verifier{secret: []byte(secret)}
}

// Verify checks the signature header against the raw, unparsed body.
// An unconfigured secret means permissive mode: everything passes.
func (v *Verifier) Verify(body []byte, signature string) error {
	if len(v.secret) == 0 {
		return nil
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature))) {
		return ErrInvalidSignature
	}
	return nil
}

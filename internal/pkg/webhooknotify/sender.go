package webhooknotify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/RefTrackApp/RefTrack/internal/pkg/env"
)

// SignatureHeader carries the HMAC of the canonical query string so the
// affiliate can verify the postback came from us.
const SignatureHeader = "X-RefTrack-Signature"

const requestTimeout = 5 * time.Second

// SignQuery computes the hex HMAC-SHA256 of the canonical query string.
func SignQuery(canonicalQuery, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonicalQuery))
	return hex.EncodeToString(mac.Sum(nil))
}

// Sender fires affiliate postbacks. Failures are returned to the caller
// so the job queue can retry the delivery.
type Sender struct {
	client *http.Client
	secret string
}

// NewSender creates a sender signing with the given secret. An empty
// secret disables the signature header.
func NewSender(secret string) *Sender {
	return &Sender{
		client: &http.Client{Timeout: requestTimeout},
		secret: secret,
	}
}

// NewSenderFromEnv creates a sender with the configured signing secret.
func NewSenderFromEnv() *Sender {
	return NewSender(env.GetEnv("WEBHOOK_SIGNING_SECRET", ""))
}

// Send performs the GET postback for one delivery. Affiliates without a
// webhook URL are skipped silently. A transport error or a non-2xx
// response is returned as an error.
func (s *Sender) Send(ctx context.Context, d *Delivery) error {
	if d.Affiliate.WebhookURL == "" {
		log.Debugf("[Webhook] Affiliate %d has no webhook URL, skipping %s", d.Affiliate.ID, d.Event)
		return nil
	}

	canonical := ResolveParams(d.Affiliate.WebhookParams, d).Encode()

	endpoint := d.Affiliate.WebhookURL
	if canonical != "" {
		separator := "?"
		if strings.Contains(endpoint, "?") {
			separator = "&"
		}
		endpoint = endpoint + separator + canonical
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	if s.secret != "" {
		req.Header.Set(SignatureHeader, SignQuery(canonical, s.secret))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request to %s failed: %w", d.Affiliate.WebhookURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint %s answered %d", d.Affiliate.WebhookURL, resp.StatusCode)
	}

	log.Infof("[Webhook] Delivered %s for commission %d to affiliate %d", d.Event, d.Commission.ID, d.Affiliate.ID)
	return nil
}

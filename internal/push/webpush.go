package push

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"calendar_reminders/internal/models"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// Client оборачивает Web Push протокол (RFC 8030 + VAPID).
// Для dispatch-конвейера это чёрный ящик: один вызов, который может упасть.
type Client struct {
	publicKey  string
	privateKey string
	subject    string
	ttl        int
	httpClient *http.Client
}

func NewClient(publicKey, privateKey, subject string) *Client {
	return &Client{
		publicKey:  publicKey,
		privateKey: privateKey,
		subject:    subject,
		ttl:        60,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send шифрует payload ключами подписки и доставляет его на endpoint.
// Не-2xx ответ провайдера — это отказ, а не успех.
func (c *Client) Send(ctx context.Context, endpoint string, keys models.SubscriptionKeys, payload []byte) error {
	if endpoint == "" {
		return fmt.Errorf("endpoint is empty")
	}
	if keys.P256dh == "" || keys.Auth == "" {
		return fmt.Errorf("subscription keys are empty")
	}

	sub := &webpush.Subscription{
		Endpoint: endpoint,
		Keys: webpush.Keys{
			P256dh: keys.P256dh,
			Auth:   keys.Auth,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, sub, &webpush.Options{
		Subscriber:      c.subject,
		VAPIDPublicKey:  c.publicKey,
		VAPIDPrivateKey: c.privateKey,
		TTL:             c.ttl,
		HTTPClient:      c.httpClient,
	})
	if err != nil {
		return fmt.Errorf("send push notification: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push provider rejected notification: status %d", resp.StatusCode)
	}
	return nil
}

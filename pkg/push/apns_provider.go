package push

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// APNSProvider sends push notifications through Apple Push Notification
// service
type APNSProvider struct {
	client *apns2.Client
	topic  string
}

// APNSConfig holds APNs token-based auth configuration
type APNSConfig struct {
	KeyFile    string
	KeyID      string
	TeamID     string
	Topic      string
	Production bool
}

// NewAPNSProvider creates an APNs provider using token-based authentication
func NewAPNSProvider(cfg *APNSConfig) (*APNSProvider, error) {
	authKey, err := token.AuthKeyFromFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load apns auth key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNSProvider{client: client, topic: cfg.Topic}, nil
}

// Name implements Provider
func (p *APNSProvider) Name() string {
	return "apns"
}

// Send implements Provider
func (p *APNSProvider) Send(ctx context.Context, deviceToken string, notification *Notification) error {
	pl := payload.NewPayload().
		AlertTitle(notification.Title).
		AlertBody(notification.Body).
		Sound("default")
	for k, v := range notification.Data {
		pl = pl.Custom(k, v)
	}

	n := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       p.topic,
		Payload:     pl,
	}

	resp, err := p.client.PushWithContext(ctx, n)
	if err != nil {
		return fmt.Errorf("apns send failed: %w", err)
	}
	if resp.StatusCode == http.StatusGone || resp.Reason == apns2.ReasonBadDeviceToken {
		return fmt.Errorf("%w: %s", ErrTokenInvalid, resp.Reason)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("apns send rejected: %s", resp.Reason)
	}
	return nil
}

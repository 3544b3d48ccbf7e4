package push

import (
	"context"
	"fmt"

	"chatwave-backend/pkg/env"
)

// NewProvidersFromEnv builds the configured set of push providers. With no
// configuration at all it returns a single mock provider so development
// environments work without credentials.
func NewProvidersFromEnv(ctx context.Context) (map[string]Provider, error) {
	providers := make(map[string]Provider)

	if credFile := env.GetString("FCM_CREDENTIALS_FILE", ""); credFile != "" {
		fcm, err := NewFCMProvider(ctx, credFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create fcm provider: %w", err)
		}
		providers[fcm.Name()] = fcm
	}

	if keyFile := env.GetString("APNS_KEY_FILE", ""); keyFile != "" {
		apns, err := NewAPNSProvider(&APNSConfig{
			KeyFile:    keyFile,
			KeyID:      env.GetString("APNS_KEY_ID", ""),
			TeamID:     env.GetString("APNS_TEAM_ID", ""),
			Topic:      env.GetString("APNS_TOPIC", ""),
			Production: env.GetBool("APNS_PRODUCTION", false),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create apns provider: %w", err)
		}
		providers[apns.Name()] = apns
	}

	if len(providers) == 0 {
		mock := NewMockProvider()
		providers[mock.Name()] = mock
	}
	return providers, nil
}

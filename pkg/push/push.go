// Package push sends mobile push notifications through FCM and APNs.
package push

import (
	"context"
	"errors"
)

// ErrTokenInvalid signals that the device token is stale and should be
// unregistered
var ErrTokenInvalid = errors.New("push token is invalid")

// Notification is a platform-independent push payload
type Notification struct {
	Title string
	Body  string
	Data  map[string]string
}

// Provider delivers a notification to one device token
type Provider interface {
	// Name identifies the provider for logs and metrics ("fcm", "apns")
	Name() string
	// Send delivers the notification. Returns ErrTokenInvalid (possibly
	// wrapped) when the token is no longer usable.
	Send(ctx context.Context, token string, notification *Notification) error
}

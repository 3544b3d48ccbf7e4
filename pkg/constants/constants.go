// Package constants defines application-wide constants for timeouts, limits, and durations.
package constants

import "time"

// WebSocket constants
const (
	// WriteWait is the time allowed to write a message to the peer
	WriteWait = 10 * time.Second

	// PongWait is the time allowed to read the next pong message from the peer
	PongWait = 60 * time.Second

	// PingPeriod is the interval between pings; must be less than PongWait
	PingPeriod = (PongWait * 9) / 10

	// MaxMessageSize is the maximum inbound frame size in bytes
	MaxMessageSize = 64 * 1024

	// SendBufferSize is the per-connection outbound queue length
	SendBufferSize = 256

	// DefaultMaxConnections caps concurrent websocket connections
	DefaultMaxConnections = 1000
)

// Call constants
const (
	// RingTimeout is how long a call may stay in the ringing state
	// before the coordinator ends it on the caller's behalf
	RingTimeout = 30 * time.Second

	// CallStatusRinging indicates a call is waiting to be answered
	CallStatusRinging = "ringing"

	// CallStatusActive indicates a call is in progress
	CallStatusActive = "active"

	// CallStatusEnded indicates a call has ended
	CallStatusEnded = "ended"

	// CallTypeAudio indicates an audio-only call
	CallTypeAudio = "audio"

	// CallTypeVideo indicates a video call
	CallTypeVideo = "video"
)

// Chat constants
const (
	// TypingIndicatorWindow is the client-side expiry for a typing
	// indicator with no explicit stopTyping. The coordinator relays
	// typing events only; it never runs this timer itself.
	TypingIndicatorWindow = 5 * time.Second

	// MaxMessageLength is the maximum allowed message text length
	MaxMessageLength = 10000

	// MaxImageSize is the maximum allowed inline image size in bytes (10MB)
	MaxImageSize = 10 * 1024 * 1024
)

// JWT constants
const (
	// AccessTokenExpiry is the default access token lifetime
	AccessTokenExpiry = 15 * time.Minute

	// RefreshTokenExpiry is the default refresh token lifetime
	RefreshTokenExpiry = 30 * 24 * time.Hour
)

// Presence constants
const (
	// PresenceTTL is how long a Redis presence entry lives without refresh
	PresenceTTL = 5 * time.Minute
)

// Validation constants
const (
	// MinPasswordLength is the minimum allowed password length
	MinPasswordLength = 6

	// MaxUsernameLength is the maximum allowed username length
	MaxUsernameLength = 50

	// MaxEmailLength is the maximum allowed email length
	MaxEmailLength = 255
)

// Shutdown constants
const (
	// GracefulShutdownTimeout is the timeout for graceful server shutdown
	GracefulShutdownTimeout = 30 * time.Second
)

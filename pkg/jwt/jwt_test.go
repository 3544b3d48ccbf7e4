package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test-secret-key-at-least-32-chars-long"

func TestGenerateAndValidateAccessToken(t *testing.T) {
	manager := NewManager(testSecret, 15*time.Minute, 24*time.Hour)

	userID := uuid.New()
	token, err := manager.GenerateAccessToken(userID, "alice@example.com", "alice")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := manager.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "chatwave-auth", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestGenerateRefreshToken(t *testing.T) {
	manager := NewManager(testSecret, 15*time.Minute, 24*time.Hour)

	userID := uuid.New()
	token, err := manager.GenerateRefreshToken(userID)
	assert.NoError(t, err)

	claims, err := manager.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Empty(t, claims.Email)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	manager := NewManager(testSecret, 15*time.Minute, 24*time.Hour)
	other := NewManager("a-completely-different-secret-key-here", 15*time.Minute, 24*time.Hour)

	token, err := manager.GenerateAccessToken(uuid.New(), "bob@example.com", "bob")
	assert.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	manager := NewManager(testSecret, -time.Minute, 24*time.Hour)

	token, err := manager.GenerateAccessToken(uuid.New(), "carol@example.com", "carol")
	assert.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	manager := NewManager(testSecret, 15*time.Minute, 24*time.Hour)

	_, err := manager.ValidateToken("not-a-jwt")
	assert.Error(t, err)
}

package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPairKeySymmetric(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	assert.Equal(t, PairKey(a, b), PairKey(b, a))
}

func TestPairKeyOrdered(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	assert.Equal(t, a.String()+":"+b.String(), PairKey(b, a))
}

func TestCalculateBucket(t *testing.T) {
	assert.Equal(t, 202603, CalculateBucket(time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, 202612, CalculateBucket(time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC)))
}

func TestUserToResponseHidesPasswordHash(t *testing.T) {
	u := &User{
		UserID:       uuid.New(),
		Email:        "alice@example.com",
		Username:     "alice",
		PasswordHash: "$2a$10$secret",
		FullName:     "Alice Example",
	}

	resp := u.ToResponse()
	assert.Equal(t, u.UserID, resp.UserID)
	assert.Equal(t, u.Username, resp.Username)
}

package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Message represents a direct chat message between two users
// Maps to the Cassandra messages table, partitioned by (pair_key, bucket)
type Message struct {
	MessageID  uuid.UUID `json:"message_id" cql:"message_id"`
	PairKey    string    `json:"-" cql:"pair_key"`
	Bucket     int       `json:"-" cql:"bucket"`
	SenderID   uuid.UUID `json:"sender_id" cql:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id" cql:"receiver_id"`
	Text       string    `json:"text,omitempty" cql:"text"`
	ImageURL   *string   `json:"image_url,omitempty" cql:"image_url"`
	SentAt     time.Time `json:"sent_at" cql:"sent_at"`
}

// PairKey builds the canonical partition key for a direct conversation.
// The two user IDs are ordered so both directions land in the same partition.
func PairKey(a, b uuid.UUID) string {
	ids := []string{a.String(), b.String()}
	sort.Strings(ids)
	return ids[0] + ":" + ids[1]
}

// CalculateBucket maps a timestamp onto a month bucket (YYYYMM) so a single
// long-lived conversation never grows one unbounded partition.
func CalculateBucket(t time.Time) int {
	return t.Year()*100 + int(t.Month())
}

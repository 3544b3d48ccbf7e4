// Package cassandra holds Cassandra-backed repositories.
package cassandra

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"chatwave-backend/internal/domain"
	"chatwave-backend/pkg/database"
)

// MessageRepository manages direct messages in Cassandra. Messages are
// partitioned by (pair_key, bucket) so a conversation's history stays in
// month-sized partitions regardless of volume.
type MessageRepository struct {
	db *database.CassandraDB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *database.CassandraDB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Save persists a message
func (r *MessageRepository) Save(msg *domain.Message) error {
	query := `
		INSERT INTO messages (pair_key, bucket, sent_at, message_id, sender_id, receiver_id, text, image_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	err := r.db.Session.Query(query,
		msg.PairKey, msg.Bucket, msg.SentAt, msg.MessageID.String(),
		msg.SenderID.String(), msg.ReceiverID.String(), msg.Text, msg.ImageURL,
	).Exec()
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

// GetByPair returns a page of messages between two users in ascending send
// order, walking month buckets from oldest to newest. Each query touches a
// single (pair_key, bucket) partition; Cassandra cannot page a query that
// restricts the partition key with IN, so cross-bucket progress lives in the
// cursor instead. pageState resumes a previous page; nextPageState is empty
// when the conversation is exhausted.
func (r *MessageRepository) GetByPair(userA, userB uuid.UUID, since time.Time, limit int, pageState []byte) ([]*domain.Message, []byte, error) {
	pairKey := domain.PairKey(userA, userB)
	buckets := bucketsBetween(since, time.Now().UTC())

	startBucket, state, err := decodePageCursor(pageState)
	if err != nil {
		return nil, nil, err
	}
	idx := 0
	if startBucket != 0 {
		idx = len(buckets)
		for i, b := range buckets {
			if b == startBucket {
				idx = i
				break
			}
		}
	}

	messages := make([]*domain.Message, 0, limit)
	for idx < len(buckets) && len(messages) < limit {
		page, next, err := r.bucketPage(pairKey, buckets[idx], since, limit-len(messages), state)
		if err != nil {
			return nil, nil, err
		}
		messages = append(messages, page...)
		state = nil

		if len(next) > 0 {
			if len(messages) >= limit {
				return messages, encodePageCursor(buckets[idx], next), nil
			}
			state = next
			continue
		}
		idx++
	}

	if idx < len(buckets) {
		return messages, encodePageCursor(buckets[idx], nil), nil
	}
	return messages, nil, nil
}

// bucketPage reads up to limit messages from one partition. Rows come back in
// clustering order, sent_at ascending, so no ORDER BY is needed. The scan is
// bounded at limit so the driver's page state stays aligned with what the
// caller consumed.
func (r *MessageRepository) bucketPage(pairKey string, bucket int, since time.Time, limit int, state []byte) ([]*domain.Message, []byte, error) {
	query := `
		SELECT pair_key, bucket, sent_at, message_id, sender_id, receiver_id, text, image_url
		FROM messages
		WHERE pair_key = ? AND bucket = ? AND sent_at >= ?`

	q := r.db.Session.Query(query, pairKey, bucket, since).PageSize(limit)
	if len(state) > 0 {
		q = q.PageState(state)
	}
	iter := q.Iter()

	messages := make([]*domain.Message, 0, limit)
	var (
		msgIDStr, senderStr, receiverStr string
		msg                              domain.Message
	)
	for len(messages) < limit && iter.Scan(&msg.PairKey, &msg.Bucket, &msg.SentAt, &msgIDStr, &senderStr, &receiverStr, &msg.Text, &msg.ImageURL) {
		id, err := uuid.Parse(msgIDStr)
		if err != nil {
			continue
		}
		sender, err := uuid.Parse(senderStr)
		if err != nil {
			continue
		}
		receiver, err := uuid.Parse(receiverStr)
		if err != nil {
			continue
		}
		m := msg
		m.MessageID = id
		m.SenderID = sender
		m.ReceiverID = receiver
		messages = append(messages, &m)
		msg = domain.Message{}
	}

	nextPageState := iter.PageState()
	if err := iter.Close(); err != nil {
		return nil, nil, fmt.Errorf("failed to query messages: %w", err)
	}
	return messages, nextPageState, nil
}

// encodePageCursor packs the bucket being walked ahead of the driver's page
// state, so a history cursor survives crossing partition boundaries
func encodePageCursor(bucket int, state []byte) []byte {
	cursor := make([]byte, 4+len(state))
	binary.BigEndian.PutUint32(cursor, uint32(bucket))
	copy(cursor[4:], state)
	return cursor
}

func decodePageCursor(cursor []byte) (int, []byte, error) {
	if len(cursor) == 0 {
		return 0, nil, nil
	}
	if len(cursor) < 4 {
		return 0, nil, fmt.Errorf("malformed page cursor")
	}
	return int(binary.BigEndian.Uint32(cursor)), cursor[4:], nil
}

// GetByID retrieves a single message within a conversation. Returns nil when
// no such message exists.
func (r *MessageRepository) GetByID(userA, userB, messageID uuid.UUID, sentAt time.Time) (*domain.Message, error) {
	pairKey := domain.PairKey(userA, userB)
	bucket := domain.CalculateBucket(sentAt)

	query := `
		SELECT pair_key, bucket, sent_at, message_id, sender_id, receiver_id, text, image_url
		FROM messages
		WHERE pair_key = ? AND bucket = ? AND sent_at = ? AND message_id = ?`

	var (
		msgIDStr, senderStr, receiverStr string
		msg                              domain.Message
	)
	err := r.db.Session.Query(query, pairKey, bucket, sentAt, messageID.String()).
		Scan(&msg.PairKey, &msg.Bucket, &msg.SentAt, &msgIDStr, &senderStr, &receiverStr, &msg.Text, &msg.ImageURL)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	msg.MessageID, _ = uuid.Parse(msgIDStr)
	msg.SenderID, _ = uuid.Parse(senderStr)
	msg.ReceiverID, _ = uuid.Parse(receiverStr)
	return &msg, nil
}

// Delete removes a message from its partition
func (r *MessageRepository) Delete(userA, userB, messageID uuid.UUID, sentAt time.Time) error {
	pairKey := domain.PairKey(userA, userB)
	bucket := domain.CalculateBucket(sentAt)

	query := `
		DELETE FROM messages
		WHERE pair_key = ? AND bucket = ? AND sent_at = ? AND message_id = ?`

	if err := r.db.Session.Query(query, pairKey, bucket, sentAt, messageID.String()).Exec(); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// bucketsBetween lists every month bucket from start to end inclusive
func bucketsBetween(start, end time.Time) []int {
	if start.After(end) {
		return []int{domain.CalculateBucket(end)}
	}
	buckets := []int{}
	cursor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := domain.CalculateBucket(end)
	for {
		b := domain.CalculateBucket(cursor)
		buckets = append(buckets, b)
		if b >= last {
			break
		}
		cursor = cursor.AddDate(0, 1, 0)
	}
	return buckets
}

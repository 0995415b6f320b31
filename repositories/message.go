package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"trollbox/domain"
	"trollbox/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	messagePrefix = "msg:"
	// Seek position after the newest possible key
	newestKey = "9999999999999999999"
)

// MessageRepository is the badger-backed transcript archive.
type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

type DiskMessage struct {
	ID     uuid.UUID `json:"id"`
	Alias  string    `json:"alias"`
	Text   string    `json:"text"`
	SentAt int64     `json:"sent_at"`
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using the UUID as a tie-breaker if two messages
//     arrive at the same nanosecond.
func (r MessageRepository) StoreMessage(message domain.Message) error {
	bytes, err := json.Marshal(fromDomain(message))
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(messageKey(message)), bytes)
	})
}

// GetMessages walks the archive from the newest message backwards.
// cursor is the value returned by the previous call, nil to start from the newest.
// The returned cursor is nil once the oldest message has been returned.
func (r MessageRepository) GetMessages(limit int, cursor *string) ([]domain.Message, *string, error) {
	if cursor != nil && !validCursor(*cursor) {
		return nil, nil, errors.ErrInvalidCursor
	}
	var diskMessages []DiskMessage
	var lastKey *string
	prefix := []byte(messagePrefix)

	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := []byte(messagePrefix + newestKey)
		if cursor != nil {
			seekKey = []byte(messagePrefix + *cursor)
		}
		it.Seek(seekKey)

		// The cursor itself was returned by the previous page
		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()) == string(seekKey) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(diskMessages) == limit {
				r.log.Debug(fmt.Sprintf("Maximum of %d message reached", limit))
				return nil
			}
			item := it.Item()
			err := item.Value(func(value []byte) error {
				var dm DiskMessage
				if err := json.Unmarshal(value, &dm); err != nil {
					return err
				}
				diskMessages = append(diskMessages, dm)
				return nil
			})
			if err != nil {
				return err
			}
			lastKey = lo.ToPtr(strings.TrimPrefix(string(item.KeyCopy(nil)), messagePrefix))
		}
		lastKey = nil
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return lo.Map(diskMessages, func(item DiskMessage, _ int) domain.Message {
		return toDomain(item)
	}), lastKey, nil
}

func messageKey(m domain.Message) string {
	return fmt.Sprintf("%s%019d:%s", messagePrefix, m.SentAt.UnixNano(), m.ID)
}

func validCursor(cursor string) bool {
	parts := strings.SplitN(cursor, ":", 2)
	if len(parts) != 2 || len(parts[0]) != len(newestKey) {
		return false
	}
	_, err := uuid.Parse(parts[1])
	return err == nil
}

func fromDomain(m domain.Message) DiskMessage {
	return DiskMessage{
		ID:     m.ID,
		Alias:  m.Alias,
		Text:   m.Text,
		SentAt: m.SentAt.UnixNano(),
	}
}

func toDomain(dm DiskMessage) domain.Message {
	return domain.Message{
		ID:     dm.ID,
		Alias:  dm.Alias,
		Text:   dm.Text,
		SentAt: time.Unix(0, dm.SentAt).UTC(),
	}
}

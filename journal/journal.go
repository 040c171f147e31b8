// Package journal remembers which webhook messages were created for a source message.
// Only identifiers are stored, entries expire after a while.
package journal

import (
	"fmt"
	"time"

	"github.com/Seklfreak/mirrorbot/models"
	"github.com/go-redis/redis"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack"
)

const (
	DefaultTTL       = time.Hour
	DefaultMaxLength = 50
)

// Journal keeps delivery records in a redis list per source message
type Journal struct {
	redis     *redis.Client
	ttl       time.Duration
	maxLength int64
}

// New returns nil if client is nil, a nil journal silently drops records
func New(client *redis.Client, ttl time.Duration, maxLength int) *Journal {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &Journal{
		redis:     client,
		ttl:       ttl,
		maxLength: int64(maxLength),
	}
}

func Key(sourceMessageID string) string {
	return fmt.Sprintf("mirrorbot:journal:delivered:%s", sourceMessageID)
}

func Encode(record models.DeliveryRecord) ([]byte, error) {
	return msgpack.Marshal(&record)
}

func Decode(data []byte) (record models.DeliveryRecord, err error) {
	err = msgpack.Unmarshal(data, &record)
	return record, err
}

// Remember appends record to the list of its source message
func (j *Journal) Remember(record models.DeliveryRecord) error {
	if j == nil {
		return nil
	}

	itemBytes, err := Encode(record)
	if err != nil {
		return errors.Wrap(err, "encoding delivery record failed")
	}

	key := Key(record.SourceMessageID)
	_, err = j.redis.Pipelined(func(pipe redis.Pipeliner) error {
		pipe.LPush(key, itemBytes)
		pipe.LTrim(key, 0, j.maxLength-1)
		pipe.Expire(key, j.ttl)
		return nil
	})
	return errors.Wrap(err, "storing delivery record failed")
}

// Deliveries returns the records of a source message, newest first
func (j *Journal) Deliveries(sourceMessageID string) ([]models.DeliveryRecord, error) {
	if j == nil {
		return nil, nil
	}

	result, err := j.redis.LRange(Key(sourceMessageID), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "reading delivery records failed")
	}

	records := make([]models.DeliveryRecord, 0, len(result))
	for _, data := range result {
		record, err := Decode([]byte(data))
		if err != nil {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

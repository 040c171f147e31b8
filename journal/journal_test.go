package journal

import (
	"strconv"
	"testing"
	"time"

	"github.com/Seklfreak/mirrorbot/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis"
)

func newTestJournal(t *testing.T, ttl time.Duration, maxLength int) (*Journal, *miniredis.Miniredis) {
	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("starting redis failed: %s", err.Error())
	}
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return New(client, ttl, maxLength), server
}

func TestKey(t *testing.T) {
	if Key("123") != "mirrorbot:journal:delivered:123" {
		t.Fatalf("Key() returned %s", Key("123"))
	}
}

func TestEncodeDecode(t *testing.T) {
	record := models.DeliveryRecord{
		SourceChannelID:   "1",
		SourceMessageID:   "2",
		Target:            "webhook #3",
		MirroredChannelID: "4",
		MirroredMessageID: "5",
		ChunkIndex:        1,
		DeliveredAt:       time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC),
	}

	data, err := Encode(record)
	if err != nil {
		t.Fatalf("Encode() failed: %s", err.Error())
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() failed: %s", err.Error())
	}
	if decoded.MirroredMessageID != "5" || decoded.ChunkIndex != 1 || !decoded.DeliveredAt.Equal(record.DeliveredAt) {
		t.Fatalf("Decode() returned %+v", decoded)
	}

	if _, err = Decode([]byte("garbage")); err == nil {
		t.Fatalf("Decode() should fail for garbage")
	}
}

func TestNilJournal(t *testing.T) {
	journal := New(nil, 0, 0)
	if journal != nil {
		t.Fatalf("New() without a client should return nil")
	}

	if err := journal.Remember(models.DeliveryRecord{SourceMessageID: "1"}); err != nil {
		t.Fatalf("Remember() on a nil journal failed: %s", err.Error())
	}
	records, err := journal.Deliveries("1")
	if err != nil || len(records) != 0 {
		t.Fatalf("Deliveries() on a nil journal returned %v, %v", records, err)
	}
}

func TestRemember(t *testing.T) {
	journal, server := newTestJournal(t, time.Minute, 2)

	for i := 0; i < 3; i++ {
		err := journal.Remember(models.DeliveryRecord{
			SourceMessageID:   "1",
			Target:            "webhook #3",
			MirroredMessageID: strconv.Itoa(100 + i),
			ChunkIndex:        i,
		})
		if err != nil {
			t.Fatalf("Remember() failed: %s", err.Error())
		}
	}
	if err := journal.Remember(models.DeliveryRecord{SourceMessageID: "2", MirroredMessageID: "200"}); err != nil {
		t.Fatalf("Remember() failed: %s", err.Error())
	}

	records, err := journal.Deliveries("1")
	if err != nil {
		t.Fatalf("Deliveries() failed: %s", err.Error())
	}
	if len(records) != 2 {
		t.Fatalf("expected the list to be capped at 2 records, got %d", len(records))
	}
	if records[0].ChunkIndex != 2 || records[1].ChunkIndex != 1 {
		t.Fatalf("expected the newest records first, got chunks %d, %d", records[0].ChunkIndex, records[1].ChunkIndex)
	}
	if records[0].MirroredMessageID != "102" {
		t.Fatalf("unexpected record: %+v", records[0])
	}

	if ttl := server.TTL(Key("1")); ttl != time.Minute {
		t.Fatalf("expected a ttl of 1m, got %s", ttl)
	}

	server.FastForward(2 * time.Minute)
	records, err = journal.Deliveries("1")
	if err != nil || len(records) != 0 {
		t.Fatalf("records should expire, got %v, %v", records, err)
	}
}

func TestRememberDefaults(t *testing.T) {
	journal, server := newTestJournal(t, 0, 0)

	for i := 0; i < DefaultMaxLength+5; i++ {
		if err := journal.Remember(models.DeliveryRecord{SourceMessageID: "1", ChunkIndex: i}); err != nil {
			t.Fatalf("Remember() failed: %s", err.Error())
		}
	}

	records, err := journal.Deliveries("1")
	if err != nil || len(records) != DefaultMaxLength {
		t.Fatalf("expected %d records, got %d, %v", DefaultMaxLength, len(records), err)
	}
	if ttl := server.TTL(Key("1")); ttl != DefaultTTL {
		t.Fatalf("expected the default ttl, got %s", ttl)
	}
}

func TestDeliveriesSkipsGarbage(t *testing.T) {
	journal, server := newTestJournal(t, time.Minute, 10)

	if err := journal.Remember(models.DeliveryRecord{SourceMessageID: "1", MirroredMessageID: "100"}); err != nil {
		t.Fatalf("Remember() failed: %s", err.Error())
	}
	server.Lpush(Key("1"), "garbage")

	records, err := journal.Deliveries("1")
	if err != nil || len(records) != 1 || records[0].MirroredMessageID != "100" {
		t.Fatalf("Deliveries() returned %v, %v", records, err)
	}
}

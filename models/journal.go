package models

import "time"

// DeliveryRecord remembers where a mirrored message ended up, it never holds message content
type DeliveryRecord struct {
	SourceChannelID   string
	SourceMessageID   string
	Target            string
	MirroredChannelID string
	MirroredMessageID string
	ChunkIndex        int
	DeliveredAt       time.Time
}

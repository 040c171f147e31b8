package mirror

import (
	"github.com/Seklfreak/mirrorbot/models"
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

// Gate names the pipeline stage that rejected a message
type Gate string

const (
	GateOptions      Gate = "options"
	GateRequirements Gate = "requirements"
	GateFilters      Gate = "filters"
	GateStrip        Gate = "strip"
)

// Requirements are minimum thresholds, zero means no restriction
type Requirements struct {
	MinContentLength    int
	MinEmbedsCount      int
	MinAttachmentsCount int
}

func NewRequirements(config models.MirrorRequirementsConfig) (Requirements, error) {
	if config.MinContentLength < 0 || config.MinEmbedsCount < 0 || config.MinAttachmentsCount < 0 {
		return Requirements{}, errors.New("requirements can not be negative")
	}
	return Requirements{
		MinContentLength:    config.MinContentLength,
		MinEmbedsCount:      config.MinEmbedsCount,
		MinAttachmentsCount: config.MinAttachmentsCount,
	}, nil
}

func (r Requirements) Met(msg *discordgo.Message) bool {
	return contentLength(msg.Content) >= r.MinContentLength &&
		len(msg.Embeds) >= r.MinEmbedsCount &&
		len(msg.Attachments) >= r.MinAttachmentsCount
}

type Options struct {
	UseWebhookProfile      bool
	RemoveAttachments      bool
	MirrorMessagesFromBots bool
	MirrorReplyMessages    bool
	MirrorMessagesOnEdit   bool
}

func NewOptions(config models.MirrorOptionsConfig) Options {
	return Options(config)
}

func (o Options) Met(ev Event) bool {
	msg := ev.Message
	isBot := msg.Author != nil && msg.Author.Bot
	return (o.MirrorMessagesFromBots || !isBot) &&
		(o.MirrorReplyMessages || msg.MessageReference == nil) &&
		(o.MirrorMessagesOnEdit || !ev.IsUpdate)
}

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Seklfreak/mirrorbot/cache"
	"github.com/Seklfreak/mirrorbot/helpers"
	"github.com/Seklfreak/mirrorbot/journal"
	"github.com/Seklfreak/mirrorbot/metrics"
	"github.com/Seklfreak/mirrorbot/mirror"
	"github.com/Seklfreak/mirrorbot/models"
	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ChannelResolver looks up channels, it's cache.Channel outside of tests
type ChannelResolver func(id string) (*discordgo.Channel, error)

type Bot struct {
	registry   *mirror.Registry
	journal    *journal.Journal
	channels   ChannelResolver
	logMessage string
	status     string
}

func NewBot(registry *mirror.Registry, journal *journal.Journal, logMessage, status string) *Bot {
	return &Bot{
		registry:   registry,
		journal:    journal,
		channels:   cache.Channel,
		logMessage: logMessage,
		status:     status,
	}
}

// OnReady gets called after the gateway connected
func (b *Bot) OnReady(session *discordgo.Session, event *discordgo.Ready) {
	defer helpers.Recover()

	log := cache.GetLogger()
	log.WithField("module", "bot").Info(fmt.Sprintf("%s is now mirroring >:)!", event.User.Username))

	if b.status != "" {
		err := session.UpdateStatusComplex(discordgo.UpdateStatusData{
			Status: b.status,
		})
		helpers.RelaxLog(err)
	}
}

// OnMessageCreate gets called after a new message was sent
// This will be called after *every* message on *every* server so it should die as soon as possible
func (b *Bot) OnMessageCreate(session *discordgo.Session, message *discordgo.MessageCreate) {
	defer helpers.Recover()

	metrics.MessagesReceived.Add(1)
	b.mirrorMessage(session.State, message.Message, false)
}

// OnMessageUpdate only mirrors complete messages, partial updates (e.g. embeds resolving) are ignored
func (b *Bot) OnMessageUpdate(session *discordgo.Session, message *discordgo.MessageUpdate) {
	defer helpers.Recover()

	if message.Message == nil || message.Author == nil {
		return
	}

	metrics.MessagesReceived.Add(1)
	b.mirrorMessage(session.State, message.Message, true)
}

func (b *Bot) mirrorMessage(state *discordgo.State, msg *discordgo.Message, isUpdate bool) {
	if !mirror.Mirrorable(msg) {
		return
	}

	m := b.registry.Resolve(msg.ChannelID, "")
	channel, err := b.channels(msg.ChannelID)
	if err != nil {
		cache.GetLogger().WithField("module", "bot").Debugf(
			"failed to resolve channel #%s: %s", msg.ChannelID, err.Error())
		channel = nil
	}
	if m == nil && channel != nil {
		m = b.registry.Resolve(msg.ChannelID, channel.ParentID)
	}
	if m == nil {
		return
	}

	ev := b.buildEvent(state, msg, channel, isUpdate)
	log := cache.GetLogger().WithFields(logrus.Fields{
		"module":          "bot",
		"mirror":          m.Name(),
		"dispatchID":      uuid.NewString(),
		"sourceChannelID": msg.ChannelID,
		"sourceMessageID": msg.ID,
	})

	if isUpdate {
		earlier, err := b.earlierMirrors(msg.ID)
		if err != nil {
			log.Warn("reading delivery journal failed: ", err.Error())
		} else if len(earlier) > 0 {
			log.Debugf("edited message was mirrored before as %s", strings.Join(earlier, ", "))
		}
	}

	results, gate, ok := m.Process(context.Background(), ev, func(source *discordgo.Message, result mirror.Result) {
		b.onDelivered(ev, result, log)
	})
	if !ok {
		metrics.MessagesRejected.Add(string(gate), 1)
		log.Debugf("message rejected by %s", gate)
		return
	}

	metrics.MessagesMirrored.Add(1)
	go b.collect(results, log)
}

// buildEvent resolves everything the filters need from the state
func (b *Bot) buildEvent(state *discordgo.State, msg *discordgo.Message, channel *discordgo.Channel, isUpdate bool) mirror.Event {
	ev := mirror.Event{
		Message:  msg,
		Channel:  channel,
		IsUpdate: isUpdate,
	}

	if channel != nil && channel.ParentID != "" {
		parent, err := b.channels(channel.ParentID)
		if err == nil {
			ev.Parent = parent
		}
	}

	if state == nil {
		return ev
	}

	guild, err := state.Guild(msg.GuildID)
	if err == nil {
		ev.Guild = guild
	}

	if msg.Member != nil {
		for _, roleID := range msg.Member.Roles {
			role, err := state.Role(msg.GuildID, roleID)
			if err != nil {
				continue
			}
			ev.Roles = append(ev.Roles, role.Name)
		}
		// every member has @everyone, discord doesn't list it
		if everyone, err := state.Role(msg.GuildID, msg.GuildID); err == nil {
			ev.Roles = append(ev.Roles, everyone.Name)
		}
	}

	return ev
}

// earlierMirrors returns the IDs of the webhook messages created for a source message, newest first
func (b *Bot) earlierMirrors(sourceMessageID string) ([]string, error) {
	records, err := b.journal.Deliveries(sourceMessageID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(records))
	for _, record := range records {
		if record.MirroredMessageID == "" {
			continue
		}
		ids = append(ids, record.MirroredMessageID)
	}
	return ids, nil
}

// onDelivered runs once for every payload a target accepted
func (b *Bot) onDelivered(ev mirror.Event, result mirror.Result, log *logrus.Entry) {
	metrics.DeliveriesSucceeded.Add(1)

	// split messages are logged once per target
	if b.logMessage != "" && result.Payload.Index == 0 {
		cache.GetLogger().WithField("module", "mirror").Info(
			mirror.FormatLogMessage(b.logMessage, ev, time.Now()))
	}

	record := models.DeliveryRecord{
		SourceChannelID: ev.Message.ChannelID,
		SourceMessageID: ev.Message.ID,
		Target:          result.Target.Name(),
		ChunkIndex:      result.Payload.Index,
		DeliveredAt:     time.Now(),
	}
	if result.Message != nil {
		record.MirroredChannelID = result.Message.ChannelID
		record.MirroredMessageID = result.Message.ID
	}
	err := b.journal.Remember(record)
	if err != nil {
		log.Warn("remembering delivery failed: ", err.Error())
	}
}

// collect waits for all deliveries of a message to finish
func (b *Bot) collect(results <-chan mirror.Result, log *logrus.Entry) {
	defer helpers.Recover()

	var delivered, failed int
	for result := range results {
		if result.Err != nil {
			failed++
			metrics.DeliveriesFailed.Add(1)
			continue
		}
		delivered++
	}

	log.Debugf("delivered %d of %d payloads", delivered, delivered+failed)
}

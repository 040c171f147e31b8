package mirror

import (
	"context"
	"io/ioutil"
	"os"
	"strconv"
	"sync"
	"testing"

	"github.com/Seklfreak/mirrorbot/cache"
	"github.com/Seklfreak/mirrorbot/models"
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log := logrus.New()
	log.Out = ioutil.Discard
	cache.SetLogger(log)

	os.Exit(m.Run())
}

type fakeTarget struct {
	name     string
	failures map[int]bool
	panics   bool

	lock sync.Mutex
	sent []*Payload
}

func (t *fakeTarget) Name() string {
	return t.name
}

func (t *fakeTarget) Send(ctx context.Context, payload *Payload) (*discordgo.Message, error) {
	t.lock.Lock()
	t.sent = append(t.sent, payload)
	t.lock.Unlock()

	if t.panics {
		panic("webhook exploded")
	}
	if t.failures[payload.Index] {
		return nil, errors.New("unknown webhook")
	}
	return &discordgo.Message{
		ID:        t.name + "-" + strconv.Itoa(payload.Index),
		ChannelID: "900",
	}, nil
}

func (t *fakeTarget) Sent() []*Payload {
	t.lock.Lock()
	defer t.lock.Unlock()
	return append([]*Payload(nil), t.sent...)
}

func newMessage(content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        "100",
		ChannelID: "200",
		GuildID:   "300",
		Content:   content,
		Type:      discordgo.MessageTypeDefault,
		Author: &discordgo.User{
			ID:       "400",
			Username: "seklfreak",
		},
	}
}

func newMirror(t *testing.T, config models.MirrorConfig, targets ...Target) *Mirror {
	if config.Name == "" {
		config.Name = "test"
	}
	if config.ChannelIDs == nil {
		config.ChannelIDs = []string{"200"}
	}
	if config.WebhookURLs == nil {
		for range targets {
			config.WebhookURLs = append(config.WebhookURLs, "https://discord.com/api/webhooks/1/token")
		}
	}

	i := 0
	m, err := New(config, func(webhookURL string) (Target, error) {
		target := targets[i]
		i++
		return target, nil
	})
	require.NoError(t, err)
	return m
}

func drain(results <-chan Result) []Result {
	var collected []Result
	for result := range results {
		collected = append(collected, result)
	}
	return collected
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(models.MirrorConfig{
		Name:    "broken",
		Filters: []models.FilterConfig{{Type: "greylist", Where: "message"}},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mirror broken")
	assert.Contains(t, err.Error(), "invalid filter type")

	_, err = New(models.MirrorConfig{
		Name:         "broken",
		Requirements: models.MirrorRequirementsConfig{MinContentLength: -1},
	}, nil)
	require.Error(t, err)

	_, err = New(models.MirrorConfig{
		Name:         "broken",
		Replacements: []models.ReplacementConfig{{Replace: "(", With: ""}},
	}, nil)
	require.Error(t, err)

	_, err = New(models.MirrorConfig{
		Name:        "broken",
		WebhookURLs: []string{"nope"},
	}, func(webhookURL string) (Target, error) {
		return nil, errors.New("invalid webhook url")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook #1")
}

func TestAdmitShortCircuits(t *testing.T) {
	m := newMirror(t, models.MirrorConfig{
		Requirements: models.MirrorRequirementsConfig{MinContentLength: 10},
		Options:      models.DefaultMirrorOptions,
		Filters:      []models.FilterConfig{{Type: "whitelist", Where: "message", Keywords: []string{"sale"}}},
	})

	_, gate, ok := m.Admit(Event{Message: newMessage("sale sale sale"), IsUpdate: true})
	assert.False(t, ok)
	assert.Equal(t, GateOptions, gate)

	_, gate, ok = m.Admit(Event{Message: newMessage("sale")})
	assert.False(t, ok)
	assert.Equal(t, GateRequirements, gate)

	_, gate, ok = m.Admit(Event{Message: newMessage("nothing to see here")})
	assert.False(t, ok)
	assert.Equal(t, GateFilters, gate)

	admitted, gate, ok := m.Admit(Event{Message: newMessage("everything on sale")})
	assert.True(t, ok)
	assert.Equal(t, Gate(""), gate)
	assert.Equal(t, "everything on sale", admitted.Message.Content)
}

func TestAdmitRejectsStrippedToNothing(t *testing.T) {
	options := models.DefaultMirrorOptions
	options.RemoveAttachments = true
	m := newMirror(t, models.MirrorConfig{Options: options})

	msg := newMessage("")
	msg.Attachments = []*discordgo.MessageAttachment{{ID: "1", Filename: "cat.png"}}

	_, gate, ok := m.Admit(Event{Message: msg})
	assert.False(t, ok)
	assert.Equal(t, GateStrip, gate)
}

func TestAdmitWorksOnACopy(t *testing.T) {
	options := models.DefaultMirrorOptions
	options.RemoveAttachments = true
	m := newMirror(t, models.MirrorConfig{Options: options})

	msg := newMessage("look at this")
	msg.Attachments = []*discordgo.MessageAttachment{{ID: "1", Filename: "cat.png"}}

	admitted, _, ok := m.Admit(Event{Message: msg})
	require.True(t, ok)
	assert.Empty(t, admitted.Message.Attachments)
	assert.Len(t, msg.Attachments, 1)
}

func TestProcessAppliesReplacementsAndDispatches(t *testing.T) {
	target := &fakeTarget{name: "a"}
	m := newMirror(t, models.MirrorConfig{
		Options: models.DefaultMirrorOptions,
		Replacements: []models.ReplacementConfig{
			{Replace: "cheap", With: "affordable", Where: "message_content"},
		},
	}, target)

	msg := newMessage("cheap stuff")
	var delivered int
	var lock sync.Mutex
	results, _, ok := m.Process(context.Background(), Event{Message: msg}, func(source *discordgo.Message, result Result) {
		lock.Lock()
		delivered++
		lock.Unlock()
		assert.Equal(t, "affordable stuff", source.Content)
	})
	require.True(t, ok)

	collected := drain(results)
	require.Len(t, collected, 1)
	assert.NoError(t, collected[0].Err)
	assert.Equal(t, 1, delivered)

	sent := target.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "affordable stuff", sent[0].Content)
	assert.Equal(t, "cheap stuff", msg.Content)
}

func TestProcessRejected(t *testing.T) {
	target := &fakeTarget{name: "a"}
	m := newMirror(t, models.MirrorConfig{Options: models.DefaultMirrorOptions}, target)

	msg := newMessage("edited")
	results, gate, ok := m.Process(context.Background(), Event{Message: msg, IsUpdate: true}, nil)
	assert.False(t, ok)
	assert.Nil(t, results)
	assert.Equal(t, GateOptions, gate)
	assert.Empty(t, target.Sent())
}

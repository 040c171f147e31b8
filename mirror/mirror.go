package mirror

import (
	"context"

	"github.com/Seklfreak/mirrorbot/models"
	"github.com/Seklfreak/mirrorbot/replacements"
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

// TargetFactory creates a delivery target for a configured webhook URL
type TargetFactory func(webhookURL string) (Target, error)

// Mirror relays messages of its channels to its targets. It is built once
// from the config and never changes afterwards.
type Mirror struct {
	name         string
	channelIDs   []string
	targets      []Target
	requirements Requirements
	options      Options
	filters      Filters
	replacements *replacements.Replacements
}

func New(config models.MirrorConfig, newTarget TargetFactory) (*Mirror, error) {
	m := &Mirror{
		name:       config.Name,
		channelIDs: config.ChannelIDs,
		options:    NewOptions(config.Options),
	}

	var err error
	m.requirements, err = NewRequirements(config.Requirements)
	if err != nil {
		return nil, errors.Wrapf(err, "mirror %s", config.Name)
	}
	m.filters, err = NewFilters(config.Filters)
	if err != nil {
		return nil, errors.Wrapf(err, "mirror %s", config.Name)
	}
	m.replacements, err = replacements.New(config.Replacements)
	if err != nil {
		return nil, errors.Wrapf(err, "mirror %s", config.Name)
	}

	for i, webhookURL := range config.WebhookURLs {
		target, err := newTarget(webhookURL)
		if err != nil {
			return nil, errors.Wrapf(err, "mirror %s: webhook #%d", config.Name, i+1)
		}
		m.targets = append(m.targets, target)
	}

	return m, nil
}

func (m *Mirror) Name() string {
	return m.name
}

func (m *Mirror) ChannelIDs() []string {
	return m.channelIDs
}

func (m *Mirror) Targets() []Target {
	return m.targets
}

func (m *Mirror) MeetsOptions(ev Event) bool {
	return m.options.Met(ev)
}

func (m *Mirror) MeetsRequirements(msg *discordgo.Message) bool {
	return m.requirements.Met(msg)
}

func (m *Mirror) MatchesFilters(ev Event) bool {
	return m.filters.Match(ev)
}

// Admit runs the event through all gates, stopping at the first one that rejects it.
// On success the returned event holds a stripped copy of the message.
func (m *Mirror) Admit(ev Event) (Event, Gate, bool) {
	if !m.MeetsOptions(ev) {
		return ev, GateOptions, false
	}
	if !m.MeetsRequirements(ev.Message) {
		return ev, GateRequirements, false
	}
	if !m.MatchesFilters(ev) {
		return ev, GateFilters, false
	}
	stripped, ok := m.Strip(ev.Message)
	if !ok {
		return ev, GateStrip, false
	}

	ev.Message = stripped
	return ev, "", true
}

// ApplyReplacements rewrites content and embeds of msg in place
func (m *Mirror) ApplyReplacements(msg *discordgo.Message) error {
	if m.replacements == nil {
		return nil
	}
	return m.replacements.Apply(msg)
}

// Process mirrors the event if it passes all gates. A failing replacement is
// logged and the message is sent with the replacements applied so far.
func (m *Mirror) Process(ctx context.Context, ev Event, onDelivered DeliveredFunc) (<-chan Result, Gate, bool) {
	admitted, gate, ok := m.Admit(ev)
	if !ok {
		return nil, gate, false
	}

	if err := m.ApplyReplacements(admitted.Message); err != nil {
		logReplacementError(m, admitted.Message, err)
	}

	payloads := m.Payloads(admitted.Message)
	return m.Dispatch(ctx, admitted.Message, payloads, onDelivered), "", true
}

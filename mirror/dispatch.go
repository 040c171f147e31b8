package mirror

import (
	"context"
	"fmt"
	"sync"

	"github.com/Seklfreak/mirrorbot/cache"
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Target is a destination mirrored messages get delivered to
type Target interface {
	// Name identifies the target in logs, it must not leak credentials
	Name() string
	Send(ctx context.Context, payload *Payload) (*discordgo.Message, error)
}

// Result is the outcome of delivering one payload to one target
type Result struct {
	Target  Target
	Payload *Payload
	// Message is the message created by the target, if it reported one
	Message *discordgo.Message
	Err     error
}

// DeliveredFunc gets called once for every payload a target accepted
type DeliveredFunc func(source *discordgo.Message, result Result)

// Dispatch sends every payload to every target. Targets are served concurrently,
// the payloads of a single target are sent in order. A failed delivery is logged
// and doesn't affect any other delivery. The returned channel receives one
// result per attempt and is closed once all attempts finished, reading it is optional.
func (m *Mirror) Dispatch(ctx context.Context, source *discordgo.Message, payloads []*Payload, onDelivered DeliveredFunc) <-chan Result {
	results := make(chan Result, len(m.targets)*len(payloads))

	var wg sync.WaitGroup
	for _, target := range m.targets {
		wg.Add(1)
		go func(target Target) {
			defer wg.Done()
			for _, payload := range payloads {
				results <- m.deliver(ctx, target, source, payload, onDelivered)
			}
		}(target)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

func (m *Mirror) deliver(ctx context.Context, target Target, source *discordgo.Message, payload *Payload, onDelivered DeliveredFunc) Result {
	result := Result{
		Target:  target,
		Payload: payload,
	}
	result.Message, result.Err = send(ctx, target, payload)
	if result.Err != nil {
		cache.GetLogger().WithFields(logrus.Fields{
			"module":          "mirror",
			"mirror":          m.name,
			"target":          target.Name(),
			"sourceChannelID": source.ChannelID,
			"sourceMessageID": source.ID,
			"chunk":           payload.Index,
		}).Error("delivering mirrored message failed: ", result.Err.Error())
		return result
	}

	if onDelivered != nil {
		func() {
			defer func() {
				if err := recover(); err != nil {
					cache.GetLogger().WithField("module", "mirror").Error(
						fmt.Sprintf("delivery callback of %s panicked: %#v", m.name, err))
				}
			}()
			onDelivered(source, result)
		}()
	}
	return result
}

// send turns a panicking target into a failed delivery
func send(ctx context.Context, target Target, payload *Payload) (message *discordgo.Message, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("%s panicked: %v", target.Name(), r)
		}
	}()
	return target.Send(ctx, payload)
}

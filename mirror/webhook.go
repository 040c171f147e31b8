package mirror

import (
	"context"

	"github.com/Seklfreak/mirrorbot/helpers"
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

// WebhookExecutor is implemented by *discordgo.Session
type WebhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// AttachmentFetcher downloads attachments so they can be uploaded again
type AttachmentFetcher interface {
	Fetch(ctx context.Context, attachment *discordgo.MessageAttachment) (*discordgo.File, error)
}

// WebhookTarget delivers payloads by executing a discord webhook
type WebhookTarget struct {
	id          string
	token       string
	session     WebhookExecutor
	attachments AttachmentFetcher
}

func NewWebhookTarget(webhookURL string, session WebhookExecutor, attachments AttachmentFetcher) (*WebhookTarget, error) {
	id, token, err := helpers.ParseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}
	return &WebhookTarget{
		id:          id,
		token:       token,
		session:     session,
		attachments: attachments,
	}, nil
}

// WebhookTargetFactory creates webhook targets sharing one session and fetcher
func WebhookTargetFactory(session WebhookExecutor, attachments AttachmentFetcher) TargetFactory {
	return func(webhookURL string) (Target, error) {
		return NewWebhookTarget(webhookURL, session, attachments)
	}
}

func (t *WebhookTarget) Name() string {
	return "webhook #" + t.id
}

func (t *WebhookTarget) Send(ctx context.Context, payload *Payload) (*discordgo.Message, error) {
	params := &discordgo.WebhookParams{
		Content:   payload.Content,
		Username:  payload.Username,
		AvatarURL: payload.AvatarURL,
		Embeds:    payload.Embeds,
	}

	for _, attachment := range payload.Attachments {
		if t.attachments == nil {
			return nil, errors.New("no attachment fetcher configured")
		}
		file, err := t.attachments.Fetch(ctx, attachment)
		if err != nil {
			return nil, errors.Wrapf(err, "fetching attachment %s failed", attachment.Filename)
		}
		params.Files = append(params.Files, file)
	}

	message, err := t.session.WebhookExecute(t.id, t.token, true, params, discordgo.WithContext(ctx))
	if err != nil {
		return nil, errors.Wrapf(err, "executing %s failed", t.Name())
	}
	return message, nil
}

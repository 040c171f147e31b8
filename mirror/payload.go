package mirror

import (
	"github.com/bwmarrin/discordgo"
)

const (
	// MaxContentLength is the most characters discord accepts in one message
	MaxContentLength = 2000

	// discord rejects embed fields with an empty name or value
	emptyFieldPlaceholder = "\u200b"
)

// Payload is one message sent to a target. Only the first payload of a message
// carries attachments and embeds, the following ones hold the remaining text.
type Payload struct {
	Index       int
	Content     string
	Attachments []*discordgo.MessageAttachment
	Embeds      []*discordgo.MessageEmbed
	// Username and AvatarURL override the webhook profile if set
	Username  string
	AvatarURL string
}

// Strip removes attachments if the mirror is configured to do so and drops gif previews.
// It works on a copy and returns false if nothing worth sending would be left.
func (m *Mirror) Strip(msg *discordgo.Message) (*discordgo.Message, bool) {
	stripped := cloneMessage(msg)

	if m.options.RemoveAttachments {
		if ContainsOnlyAttachments(stripped) {
			return nil, false
		}
		stripped.Attachments = nil
	}
	if IsGif(stripped) {
		stripped.Embeds = stripped.Embeds[:len(stripped.Embeds)-1]
	}

	return stripped, true
}

// Payloads splits the message into as many payloads as its content needs
func (m *Mirror) Payloads(msg *discordgo.Message) []*Payload {
	embeds := fixInvalidEmbeds(msg.Embeds)
	chunks := splitContent(msg.Content, MaxContentLength)

	first := &Payload{
		Index:       0,
		Attachments: msg.Attachments,
		Embeds:      embeds,
	}
	if len(chunks) > 0 {
		first.Content = chunks[0]
	}
	m.applyProfile(first, msg)

	payloads := []*Payload{first}
	for i := 1; i < len(chunks); i++ {
		payload := &Payload{
			Index:   i,
			Content: chunks[i],
		}
		m.applyProfile(payload, msg)
		payloads = append(payloads, payload)
	}
	return payloads
}

func (m *Mirror) applyProfile(payload *Payload, msg *discordgo.Message) {
	if m.options.UseWebhookProfile || msg.Author == nil {
		return
	}
	payload.Username = DisplayName(msg)
	payload.AvatarURL = msg.Author.AvatarURL("")
}

// splitContent cuts content into pieces of at most size characters
func splitContent(content string, size int) []string {
	if content == "" {
		return nil
	}
	runes := []rune(content)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

func fixInvalidEmbeds(embeds []*discordgo.MessageEmbed) []*discordgo.MessageEmbed {
	for _, embed := range embeds {
		if embed == nil {
			continue
		}
		for _, field := range embed.Fields {
			if field == nil {
				continue
			}
			if field.Name == "" {
				field.Name = emptyFieldPlaceholder
			}
			if field.Value == "" {
				field.Value = emptyFieldPlaceholder
			}
		}
	}
	return embeds
}

package mirror

import (
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

// Event is an observed message together with the state needed to judge it
type Event struct {
	Message *discordgo.Message
	// Channel is the channel the message was posted in, nil if it could not be resolved
	Channel *discordgo.Channel
	// Parent is the category, forum or news channel a thread lives in
	Parent *discordgo.Channel
	// Guild is nil for direct messages
	Guild *discordgo.Guild
	// Roles holds the names of the roles the author has on the guild
	Roles    []string
	IsUpdate bool
}

// ChannelID returns the ID of the channel the message was posted in
func (e Event) ChannelID() string {
	if e.Message != nil && e.Message.ChannelID != "" {
		return e.Message.ChannelID
	}
	if e.Channel != nil {
		return e.Channel.ID
	}
	return ""
}

// ParentID returns the ID of the parent channel, or an empty string
func (e Event) ParentID() string {
	if e.Parent != nil {
		return e.Parent.ID
	}
	if e.Channel != nil {
		return e.Channel.ParentID
	}
	return ""
}

// Mirrorable returns false for messages that are never relayed,
// regardless of the mirror they would end up in
func Mirrorable(msg *discordgo.Message) bool {
	return !IsSystemMessage(msg) &&
		!IsDirectMessage(msg) &&
		!IsVisibleOnlyByClient(msg) &&
		!IsEmptyMessage(msg) &&
		!IsPublishedMessage(msg)
}

// IsSystemMessage checks for join messages, pins, boosts and the like
func IsSystemMessage(msg *discordgo.Message) bool {
	switch msg.Type {
	case discordgo.MessageTypeDefault,
		discordgo.MessageTypeReply,
		discordgo.MessageTypeChatInputCommand,
		discordgo.MessageTypeContextMenuCommand:
		return false
	}
	return true
}

func IsDirectMessage(msg *discordgo.Message) bool {
	return msg.GuildID == ""
}

func IsVisibleOnlyByClient(msg *discordgo.Message) bool {
	return msg.Flags&discordgo.MessageFlagsEphemeral != 0
}

// IsPublishedMessage checks if the message is a crosspost from a followed news channel
func IsPublishedMessage(msg *discordgo.Message) bool {
	return msg.Flags&discordgo.MessageFlagsCrossPosted != 0
}

func IsEmptyMessage(msg *discordgo.Message) bool {
	return msg.Content == "" && len(msg.Embeds) == 0 && len(msg.Attachments) == 0
}

// IsGif checks for a single embed generated by an external provider, like a tenor link
func IsGif(msg *discordgo.Message) bool {
	return len(msg.Embeds) == 1 && msg.Embeds[0] != nil && msg.Embeds[0].Provider != nil
}

func ContainsOnlyAttachments(msg *discordgo.Message) bool {
	return len(msg.Attachments) > 0 && msg.Content == "" && len(msg.Embeds) == 0
}

// DisplayName returns the guild nickname, the global name or the username, whichever is set first
func DisplayName(msg *discordgo.Message) string {
	if msg.Member != nil && msg.Member.Nick != "" {
		return msg.Member.Nick
	}
	if msg.Author == nil {
		return ""
	}
	if msg.Author.GlobalName != "" {
		return msg.Author.GlobalName
	}
	return msg.Author.Username
}

func contentLength(content string) int {
	return utf8.RuneCountInString(content)
}

// cloneMessage copies everything the pipeline mutates, so cached messages stay untouched
func cloneMessage(msg *discordgo.Message) *discordgo.Message {
	clone := *msg
	if msg.Attachments != nil {
		clone.Attachments = make([]*discordgo.MessageAttachment, len(msg.Attachments))
		copy(clone.Attachments, msg.Attachments)
	}
	if msg.Embeds != nil {
		clone.Embeds = make([]*discordgo.MessageEmbed, len(msg.Embeds))
		for i, embed := range msg.Embeds {
			clone.Embeds[i] = cloneEmbed(embed)
		}
	}
	return &clone
}

func cloneEmbed(embed *discordgo.MessageEmbed) *discordgo.MessageEmbed {
	if embed == nil {
		return nil
	}
	clone := *embed
	if embed.Footer != nil {
		footer := *embed.Footer
		clone.Footer = &footer
	}
	if embed.Image != nil {
		image := *embed.Image
		clone.Image = &image
	}
	if embed.Thumbnail != nil {
		thumbnail := *embed.Thumbnail
		clone.Thumbnail = &thumbnail
	}
	if embed.Video != nil {
		video := *embed.Video
		clone.Video = &video
	}
	if embed.Provider != nil {
		provider := *embed.Provider
		clone.Provider = &provider
	}
	if embed.Author != nil {
		author := *embed.Author
		clone.Author = &author
	}
	if embed.Fields != nil {
		clone.Fields = make([]*discordgo.MessageEmbedField, len(embed.Fields))
		for i, field := range embed.Fields {
			if field == nil {
				continue
			}
			fieldCopy := *field
			clone.Fields[i] = &fieldCopy
		}
	}
	return &clone
}

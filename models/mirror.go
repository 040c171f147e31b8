package models

// MirrorConfig is one mirror definition from the config file
type MirrorConfig struct {
	Name         string
	ChannelIDs   []string
	WebhookURLs  []string
	Requirements MirrorRequirementsConfig
	Options      MirrorOptionsConfig
	Replacements []ReplacementConfig
	Filters      []FilterConfig
}

type MirrorRequirementsConfig struct {
	MinContentLength    int
	MinEmbedsCount      int
	MinAttachmentsCount int
}

type MirrorOptionsConfig struct {
	UseWebhookProfile      bool
	RemoveAttachments      bool
	MirrorMessagesFromBots bool
	MirrorReplyMessages    bool
	MirrorMessagesOnEdit   bool
}

// DefaultMirrorOptions relays new messages from any author, edits are ignored
var DefaultMirrorOptions = MirrorOptionsConfig{
	UseWebhookProfile:      false,
	RemoveAttachments:      false,
	MirrorMessagesFromBots: true,
	MirrorReplyMessages:    true,
	MirrorMessagesOnEdit:   false,
}

// FilterConfig holds the raw filter values, they get validated by the mirror package
type FilterConfig struct {
	Type     string
	Where    string
	Keywords []string
}

// ReplacementConfig holds the raw replacement values, they get validated by the replacements package
type ReplacementConfig struct {
	Replace string
	With    string
	Where   string
}

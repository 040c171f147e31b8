package mirror

import (
	"strings"

	"github.com/Seklfreak/mirrorbot/models"
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

// FilterMode decides whether keywords have to be present or absent
type FilterMode int

const (
	FilterWhitelist FilterMode = iota + 1
	FilterBlacklist
)

func ParseFilterMode(value string) (FilterMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "whitelist":
		return FilterWhitelist, nil
	case "blacklist":
		return FilterBlacklist, nil
	}
	return 0, errors.Errorf("invalid filter type: %q", value)
}

func (m FilterMode) String() string {
	switch m {
	case FilterWhitelist:
		return "whitelist"
	case FilterBlacklist:
		return "blacklist"
	}
	return "unknown"
}

// FilterFacet is the part of a message a filter looks at
type FilterFacet int

const (
	FacetMessage FilterFacet = iota + 1
	FacetPostTag
	FacetUsername
	FacetGuildNickname
	FacetUserRoles
)

func ParseFilterFacet(value string) (FilterFacet, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "message":
		return FacetMessage, nil
	case "post_tag":
		return FacetPostTag, nil
	case "username":
		return FacetUsername, nil
	case "guild_nickname":
		return FacetGuildNickname, nil
	case "user_roles":
		return FacetUserRoles, nil
	}
	return 0, errors.Errorf("invalid filter location: %q", value)
}

func (f FilterFacet) String() string {
	switch f {
	case FacetMessage:
		return "message"
	case FacetPostTag:
		return "post_tag"
	case FacetUsername:
		return "username"
	case FacetGuildNickname:
		return "guild_nickname"
	case FacetUserRoles:
		return "user_roles"
	}
	return "unknown"
}

type Filter struct {
	mode     FilterMode
	facet    FilterFacet
	keywords []string
}

func NewFilter(config models.FilterConfig) (*Filter, error) {
	mode, err := ParseFilterMode(config.Type)
	if err != nil {
		return nil, err
	}
	facet, err := ParseFilterFacet(config.Where)
	if err != nil {
		return nil, err
	}

	keywords := make([]string, 0, len(config.Keywords))
	for _, keyword := range config.Keywords {
		keywords = append(keywords, strings.ToLower(keyword))
	}

	return &Filter{
		mode:     mode,
		facet:    facet,
		keywords: keywords,
	}, nil
}

func (f *Filter) Mode() FilterMode {
	return f.mode
}

func (f *Filter) Facet() FilterFacet {
	return f.facet
}

// Match checks the filter's facet of the event against its keywords
func (f *Filter) Match(ev Event) bool {
	switch f.facet {
	case FacetMessage:
		return f.messageMatches(ev.Message)
	case FacetPostTag:
		return f.postTagMatches(ev)
	case FacetUsername:
		return f.usernameMatches(ev.Message)
	case FacetGuildNickname:
		return f.nicknameMatches(ev.Message)
	case FacetUserRoles:
		return f.userRolesMatch(ev)
	}
	return true
}

func (f *Filter) messageMatches(msg *discordgo.Message) bool {
	return f.stringMatches(strings.ToLower(msg.Content)) || f.embedsMatch(msg)
}

func (f *Filter) embedsMatch(msg *discordgo.Message) bool {
	if len(msg.Embeds) == 0 {
		return false
	}
	for _, embed := range msg.Embeds {
		if !f.stringMatches(embedText(embed)) {
			return false
		}
	}
	return true
}

// embedText concatenates all human-readable parts of an embed, lowercased
func embedText(embed *discordgo.MessageEmbed) string {
	if embed == nil {
		return ""
	}

	var text strings.Builder
	text.WriteString(embed.Title)
	text.WriteString(embed.Description)
	for _, field := range embed.Fields {
		if field == nil {
			continue
		}
		text.WriteString(field.Name)
		text.WriteString(field.Value)
	}
	if embed.Footer != nil {
		text.WriteString(embed.Footer.Text)
	}
	if embed.Author != nil {
		text.WriteString(embed.Author.Name)
	}
	return strings.ToLower(text.String())
}

// postTagMatches never disqualifies messages outside of forum posts
func (f *Filter) postTagMatches(ev Event) bool {
	if ev.Parent == nil || ev.Parent.Type != discordgo.ChannelTypeGuildForum {
		return true
	}

	var applied []string
	if ev.Channel != nil {
		applied = ev.Channel.AppliedTags
	}

	var tags strings.Builder
	for _, tag := range ev.Parent.AvailableTags {
		for _, appliedID := range applied {
			if tag.ID == appliedID {
				tags.WriteString(strings.ToLower(tag.Name))
				break
			}
		}
	}
	return f.stringMatches(tags.String())
}

func (f *Filter) usernameMatches(msg *discordgo.Message) bool {
	if msg.Author == nil {
		return f.stringMatches("")
	}
	return f.stringMatches(strings.ToLower(msg.Author.Username))
}

func (f *Filter) nicknameMatches(msg *discordgo.Message) bool {
	if msg.Member == nil {
		return false
	}
	return f.stringMatches(strings.ToLower(DisplayName(msg)))
}

func (f *Filter) userRolesMatch(ev Event) bool {
	if ev.Message.Member == nil {
		return false
	}
	var roles strings.Builder
	for _, role := range ev.Roles {
		roles.WriteString(strings.ToLower(role))
	}
	return f.stringMatches(roles.String())
}

// stringMatches expects an already lowercased subject
func (f *Filter) stringMatches(subject string) bool {
	found := false
	for _, keyword := range f.keywords {
		if strings.Contains(subject, keyword) {
			found = true
			break
		}
	}
	if f.mode == FilterWhitelist {
		return found
	}
	return !found
}

// Filters admit a message if at least one of them matches.
// Without any filters every message is admitted.
type Filters []*Filter

func NewFilters(configs []models.FilterConfig) (Filters, error) {
	filters := make(Filters, 0, len(configs))
	for i, config := range configs {
		filter, err := NewFilter(config)
		if err != nil {
			return nil, errors.Wrapf(err, "filter #%d", i+1)
		}
		filters = append(filters, filter)
	}
	return filters, nil
}

func (fs Filters) Match(ev Event) bool {
	if len(fs) == 0 {
		return true
	}
	for _, filter := range fs {
		if filter.Match(ev) {
			return true
		}
	}
	return false
}

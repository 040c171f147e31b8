// Package replacements rewrites message content and embeds before they get mirrored
package replacements

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Seklfreak/mirrorbot/models"
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

// Location is the part of a message a replacement gets applied to
type Location int

const (
	Everywhere Location = iota + 1
	MessageContent
	EmbedAuthor
	EmbedAuthorURL
	EmbedAuthorIconURL
	EmbedTitle
	EmbedDescription
	EmbedURL
	EmbedFieldName
	EmbedFieldValue
	EmbedImageURL
	EmbedThumbnailURL
	EmbedFooter
	EmbedFooterIconURL
	EmbedColor
)

var locationNames = map[string]Location{
	"everywhere":            Everywhere,
	"message_content":       MessageContent,
	"embed_author":          EmbedAuthor,
	"embed_author_url":      EmbedAuthorURL,
	"embed_author_icon_url": EmbedAuthorIconURL,
	"embed_title":           EmbedTitle,
	"embed_description":     EmbedDescription,
	"embed_url":             EmbedURL,
	"embed_field_name":      EmbedFieldName,
	"embed_field_value":     EmbedFieldValue,
	"embed_image_url":       EmbedImageURL,
	"embed_thumbnail_url":   EmbedThumbnailURL,
	"embed_footer":          EmbedFooter,
	"embed_footer_icon_url": EmbedFooterIconURL,
	"embed_color":           EmbedColor,
}

// ParseLocation defaults to Everywhere for an empty value
func ParseLocation(value string) (Location, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return Everywhere, nil
	}
	if location, ok := locationNames[value]; ok {
		return location, nil
	}
	return 0, errors.Errorf("invalid replacement location: %q", value)
}

func (l Location) String() string {
	for name, location := range locationNames {
		if location == l {
			return name
		}
	}
	return "unknown"
}

const (
	// WildcardPattern matches everything, including fields the embed doesn't have yet
	WildcardPattern = `^(.|\n)*`

	// colors closer than this are considered equal
	colorEpsilon = 3000
)

var hexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type Replacement struct {
	where    Location
	pattern  *regexp.Regexp
	with     string
	wildcard bool
	// only used for EmbedColor
	color    int
	newColor int
}

func NewReplacement(config models.ReplacementConfig) (*Replacement, error) {
	where, err := ParseLocation(config.Where)
	if err != nil {
		return nil, err
	}

	r := &Replacement{
		where: where,
		with:  config.With,
	}

	if where == EmbedColor {
		r.color, err = parseHexColor(config.Replace)
		if err != nil {
			return nil, err
		}
		r.newColor, err = parseHexColor(config.With)
		if err != nil {
			return nil, err
		}
		return r, nil
	}

	r.pattern, err = regexp.Compile(config.Replace)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid replacement pattern %q", config.Replace)
	}
	r.wildcard = config.Replace == WildcardPattern
	return r, nil
}

func parseHexColor(value string) (int, error) {
	if !hexColorRegex.MatchString(value) {
		return 0, errors.Errorf("invalid hex color: %q", value)
	}
	color, err := strconv.ParseInt(value[1:], 16, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid hex color: %q", value)
	}
	return int(color), nil
}

func (r *Replacement) Where() Location {
	return r.where
}

// Apply rewrites msg in place
func (r *Replacement) Apply(msg *discordgo.Message) {
	if r.where == Everywhere || r.where == MessageContent {
		msg.Content = r.replace(msg.Content)
	}
	for _, embed := range msg.Embeds {
		if embed == nil {
			continue
		}
		r.applyEmbed(embed)
	}
}

func (r *Replacement) applyEmbed(embed *discordgo.MessageEmbed) {
	switch r.where {
	case Everywhere:
		embed.Title = r.replace(embed.Title)
		embed.Description = r.replace(embed.Description)
		for _, field := range embed.Fields {
			if field == nil {
				continue
			}
			field.Name = r.replace(field.Name)
			field.Value = r.replace(field.Value)
		}
		if embed.Footer != nil {
			embed.Footer.Text = r.replace(embed.Footer.Text)
		}
		if embed.Author != nil {
			embed.Author.Name = r.replace(embed.Author.Name)
		}
	case EmbedTitle:
		embed.Title = r.replace(embed.Title)
	case EmbedDescription:
		embed.Description = r.replace(embed.Description)
	case EmbedURL:
		embed.URL = r.replace(embed.URL)
	case EmbedFieldName:
		for _, field := range embed.Fields {
			if field != nil {
				field.Name = r.replace(field.Name)
			}
		}
	case EmbedFieldValue:
		for _, field := range embed.Fields {
			if field != nil {
				field.Value = r.replace(field.Value)
			}
		}
	case EmbedAuthor, EmbedAuthorURL, EmbedAuthorIconURL:
		if embed.Author == nil {
			if !r.wildcard {
				return
			}
			embed.Author = &discordgo.MessageEmbedAuthor{}
		}
		switch r.where {
		case EmbedAuthor:
			embed.Author.Name = r.replace(embed.Author.Name)
		case EmbedAuthorURL:
			embed.Author.URL = r.replace(embed.Author.URL)
		default:
			embed.Author.IconURL = r.replace(embed.Author.IconURL)
		}
	case EmbedFooter, EmbedFooterIconURL:
		if embed.Footer == nil {
			if !r.wildcard {
				return
			}
			embed.Footer = &discordgo.MessageEmbedFooter{}
		}
		if r.where == EmbedFooter {
			embed.Footer.Text = r.replace(embed.Footer.Text)
		} else {
			embed.Footer.IconURL = r.replace(embed.Footer.IconURL)
		}
	case EmbedImageURL:
		if embed.Image == nil {
			if !r.wildcard {
				return
			}
			embed.Image = &discordgo.MessageEmbedImage{}
		}
		embed.Image.URL = r.replace(embed.Image.URL)
	case EmbedThumbnailURL:
		if embed.Thumbnail == nil {
			if !r.wildcard {
				return
			}
			embed.Thumbnail = &discordgo.MessageEmbedThumbnail{}
		}
		embed.Thumbnail.URL = r.replace(embed.Thumbnail.URL)
	case EmbedColor:
		if colorsAreEqual(embed.Color, r.color) {
			embed.Color = r.newColor
		}
	}
}

// replace leaves empty values alone unless the pattern is the wildcard
func (r *Replacement) replace(value string) string {
	if value == "" && !r.wildcard {
		return value
	}
	return r.pattern.ReplaceAllString(value, r.with)
}

func colorsAreEqual(a, b int) bool {
	difference := a - b
	if difference < 0 {
		difference = -difference
	}
	return difference <= colorEpsilon
}

// Replacements are applied in the order they were configured
type Replacements struct {
	rules []*Replacement
}

func New(configs []models.ReplacementConfig) (*Replacements, error) {
	replacements := &Replacements{
		rules: make([]*Replacement, 0, len(configs)),
	}
	for i, config := range configs {
		rule, err := NewReplacement(config)
		if err != nil {
			return nil, errors.Wrapf(err, "replacement #%d", i+1)
		}
		replacements.rules = append(replacements.rules, rule)
	}
	return replacements, nil
}

func (rs *Replacements) Len() int {
	return len(rs.rules)
}

// Apply runs every rule against msg. If a rule fails the remaining ones are
// skipped, changes made by earlier rules are kept.
func (rs *Replacements) Apply(msg *discordgo.Message) error {
	for i, rule := range rs.rules {
		if err := applySafely(rule, msg); err != nil {
			return errors.Wrapf(err, "replacement #%d (%s)", i+1, rule.where)
		}
	}
	return nil
}

func applySafely(rule *Replacement, msg *discordgo.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("%v", r)
		}
	}()
	rule.Apply(msg)
	return nil
}

package helpers

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/Jeffail/gabs"
	"github.com/Seklfreak/mirrorbot/models"
	"github.com/pkg/errors"
)

// config Saves the bot-config
var config *gabs.Container

// LoadConfig loads the config from $path into $config
func LoadConfig(path string) {
	json, err := gabs.ParseJSONFile(path)

	if err != nil {
		panic(err)
	}

	config = json
}

// GetConfig is a config getter
func GetConfig() *gabs.Container {
	return config
}

// ConfigString returns the string at path, or fallback if it is missing or not a string
func ConfigString(c *gabs.Container, path string, fallback string) string {
	if value, ok := c.Path(path).Data().(string); ok {
		return value
	}
	return fallback
}

func ConfigBool(c *gabs.Container, path string, fallback bool) bool {
	if value, ok := c.Path(path).Data().(bool); ok {
		return value
	}
	return fallback
}

// ConfigInt accepts JSON numbers and numeric strings
func ConfigInt(c *gabs.Container, path string, fallback int) (int, error) {
	switch value := c.Path(path).Data().(type) {
	case nil:
		return fallback, nil
	case float64:
		if value != float64(int(value)) {
			return fallback, errors.Errorf("%s: expected an integer, got %v", path, value)
		}
		return int(value), nil
	case string:
		number, err := strconv.Atoi(value)
		if err != nil {
			return fallback, errors.Wrapf(err, "%s: expected an integer", path)
		}
		return number, nil
	}
	return fallback, errors.Errorf("%s: expected an integer", path)
}

// ConfigStrings reads a list of strings, a single string is treated as a list with one entry
func ConfigStrings(c *gabs.Container, path string) ([]string, error) {
	node := c.Path(path)
	switch value := node.Data().(type) {
	case nil:
		return nil, nil
	case string:
		return []string{value}, nil
	}

	children, err := orderedChildren(node)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: expected a list", path)
	}
	values := make([]string, 0, len(children))
	for i, child := range children {
		switch value := child.Data().(type) {
		case string:
			values = append(values, value)
		case float64:
			// snowflakes written as numbers lose precision, this only helps for short values
			values = append(values, strconv.FormatFloat(value, 'f', -1, 64))
		default:
			return nil, errors.Errorf("%s[%d]: expected a string", path, i)
		}
	}
	return values, nil
}

// orderedChildren returns array elements in order, or object values sorted by key.
// Objects keyed by numbers ({"1": ..., "2": ...}) keep their numeric order.
func orderedChildren(c *gabs.Container) ([]*gabs.Container, error) {
	if _, ok := c.Data().(map[string]interface{}); !ok {
		return c.Children()
	}

	childrenMap, err := c.ChildrenMap()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(childrenMap))
	for key := range childrenMap {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})

	children := make([]*gabs.Container, 0, len(keys))
	for _, key := range keys {
		children = append(children, childrenMap[key])
	}
	return children, nil
}

// ParseMirrorConfigs reads the "mirrors" section of the config
func ParseMirrorConfigs(c *gabs.Container) ([]models.MirrorConfig, error) {
	if !c.ExistsP("mirrors") {
		return nil, nil
	}
	children, err := orderedChildren(c.Path("mirrors"))
	if err != nil {
		return nil, errors.Wrap(err, "mirrors: expected a list")
	}

	mirrorConfigs := make([]models.MirrorConfig, 0, len(children))
	for i, child := range children {
		mirrorConfig, err := parseMirrorConfig(child, i)
		if err != nil {
			return nil, err
		}
		mirrorConfigs = append(mirrorConfigs, mirrorConfig)
	}
	return mirrorConfigs, nil
}

func parseMirrorConfig(c *gabs.Container, i int) (mirrorConfig models.MirrorConfig, err error) {
	mirrorConfig.Name = ConfigString(c, "name", fmt.Sprintf("#%d", i+1))
	wrap := func(err error) error {
		return errors.Wrapf(err, "mirror %s", mirrorConfig.Name)
	}

	if mirrorConfig.ChannelIDs, err = ConfigStrings(c, "channel_ids"); err != nil {
		return mirrorConfig, wrap(err)
	}
	if mirrorConfig.WebhookURLs, err = ConfigStrings(c, "webhook_urls"); err != nil {
		return mirrorConfig, wrap(err)
	}

	if mirrorConfig.Requirements.MinContentLength, err = ConfigInt(c, "requirements.min_content_length", 0); err != nil {
		return mirrorConfig, wrap(err)
	}
	if mirrorConfig.Requirements.MinEmbedsCount, err = ConfigInt(c, "requirements.min_embeds_count", 0); err != nil {
		return mirrorConfig, wrap(err)
	}
	if mirrorConfig.Requirements.MinAttachmentsCount, err = ConfigInt(c, "requirements.min_attachments_count", 0); err != nil {
		return mirrorConfig, wrap(err)
	}

	defaults := models.DefaultMirrorOptions
	mirrorConfig.Options = models.MirrorOptionsConfig{
		UseWebhookProfile:      ConfigBool(c, "options.use_webhook_profile", defaults.UseWebhookProfile),
		RemoveAttachments:      ConfigBool(c, "options.remove_attachments", defaults.RemoveAttachments),
		MirrorMessagesFromBots: ConfigBool(c, "options.mirror_messages_from_bots", defaults.MirrorMessagesFromBots),
		MirrorReplyMessages:    ConfigBool(c, "options.mirror_reply_messages", defaults.MirrorReplyMessages),
		MirrorMessagesOnEdit:   ConfigBool(c, "options.mirror_messages_on_edit", defaults.MirrorMessagesOnEdit),
	}

	if c.ExistsP("filters") {
		filters, err := orderedChildren(c.Path("filters"))
		if err != nil {
			return mirrorConfig, wrap(errors.Wrap(err, "filters: expected a list"))
		}
		for _, filter := range filters {
			keywords, err := ConfigStrings(filter, "keywords")
			if err != nil {
				return mirrorConfig, wrap(err)
			}
			mirrorConfig.Filters = append(mirrorConfig.Filters, models.FilterConfig{
				Type:     ConfigString(filter, "type", ""),
				Where:    ConfigString(filter, "where", ""),
				Keywords: keywords,
			})
		}
	}

	if c.ExistsP("replacements") {
		replacements, err := orderedChildren(c.Path("replacements"))
		if err != nil {
			return mirrorConfig, wrap(errors.Wrap(err, "replacements: expected a list"))
		}
		for _, replacement := range replacements {
			mirrorConfig.Replacements = append(mirrorConfig.Replacements, models.ReplacementConfig{
				Replace: ConfigString(replacement, "replace", ""),
				With:    ConfigString(replacement, "with", ""),
				Where:   ConfigString(replacement, "where", ""),
			})
		}
	}

	return mirrorConfig, nil
}

package mirror

import (
	"strings"
	"time"

	"github.com/Seklfreak/mirrorbot/cache"
	"github.com/Seklfreak/mirrorbot/metrics"
	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// LogDateFormat is used for the %date% placeholder
const LogDateFormat = "1/2/2006, 3:04:05 PM"

// FormatLogMessage fills the %date%, %author%, %server% and %channel% placeholders of template
func FormatLogMessage(template string, ev Event, now time.Time) string {
	if template == "" {
		return ""
	}

	var author, server, channel string
	if ev.Message != nil && ev.Message.Author != nil {
		author = ev.Message.Author.Username
	}
	if ev.Guild != nil {
		server = ev.Guild.Name
	}
	if ev.Channel != nil {
		channel = ev.Channel.Name
	}

	return strings.NewReplacer(
		"%date%", now.Format(LogDateFormat),
		"%author%", author,
		"%server%", server,
		"%channel%", channel,
	).Replace(template)
}

func logReplacementError(m *Mirror, msg *discordgo.Message, err error) {
	metrics.ReplacementErrors.Add(1)
	cache.GetLogger().WithFields(logrus.Fields{
		"module":          "mirror",
		"mirror":          m.name,
		"sourceChannelID": msg.ChannelID,
		"sourceMessageID": msg.ID,
	}).Error("applying replacements failed: ", err.Error())
}

package metrics

import (
	"expvar"
	"net/http"
	"runtime"
	"time"

	"github.com/Seklfreak/mirrorbot/cache"
	"github.com/bwmarrin/discordgo"
)

var (
	// MessagesReceived counts all message create and update events
	MessagesReceived = expvar.NewInt("messages_received")

	// MessagesMirrored counts messages that passed every gate
	MessagesMirrored = expvar.NewInt("messages_mirrored")

	// MessagesRejected counts rejected messages by the gate that rejected them
	MessagesRejected = expvar.NewMap("messages_rejected")

	// DeliveriesSucceeded counts payloads a webhook accepted
	DeliveriesSucceeded = expvar.NewInt("deliveries_succeeded")

	// DeliveriesFailed counts payloads that could not be delivered
	DeliveriesFailed = expvar.NewInt("deliveries_failed")

	// ReplacementErrors counts messages whose replacements failed
	ReplacementErrors = expvar.NewInt("replacement_errors")

	// MirroredChannels counts all channels bound to a mirror
	MirroredChannels = expvar.NewInt("mirrored_channels")

	// GuildCount counts all joined guilds
	GuildCount = expvar.NewInt("guild_count")

	// CoroutineCount counts all running coroutines
	CoroutineCount = expvar.NewInt("coroutine_count")

	// Uptime stores the timestamp of the bot's boot
	Uptime = expvar.NewInt("uptime")
)

// Init starts a http server serving /debug/vars on $address, an empty address disables it
func Init(address string) {
	Uptime.Set(time.Now().Unix())
	if address == "" {
		return
	}

	cache.GetLogger().WithField("module", "metrics").Info("Listening on " + address)
	go func() {
		err := http.ListenAndServe(address, nil)
		if err != nil {
			cache.GetLogger().WithField("module", "metrics").Error("metrics server stopped: ", err.Error())
		}
	}()
}

// OnReady listens for said discord event
func OnReady(session *discordgo.Session, event *discordgo.Ready) {
	go CollectDiscordMetrics(session)
	go CollectRuntimeMetrics()
}

// CollectDiscordMetrics counts Guilds
func CollectDiscordMetrics(session *discordgo.Session) {
	for {
		time.Sleep(15 * time.Second)

		session.State.RLock()
		GuildCount.Set(int64(len(session.State.Guilds)))
		session.State.RUnlock()
	}
}

// CollectRuntimeMetrics counts all running coroutines
func CollectRuntimeMetrics() {
	for {
		time.Sleep(15 * time.Second)
		CoroutineCount.Set(int64(runtime.NumGoroutine()))
	}
}

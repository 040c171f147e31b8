package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/Seklfreak/mirrorbot/cache"
	"github.com/Seklfreak/mirrorbot/helpers"
	"github.com/Seklfreak/mirrorbot/journal"
	"github.com/Seklfreak/mirrorbot/logging"
	"github.com/Seklfreak/mirrorbot/metrics"
	"github.com/Seklfreak/mirrorbot/mirror"
	"github.com/Seklfreak/mirrorbot/version"
	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/getsentry/raven-go"
	"github.com/go-redis/redis"
	"github.com/kz/discordrus"
	"github.com/sirupsen/logrus"
)

// Entrypoint
func main() {
	var err error

	log := logrus.New()
	log.Out = os.Stdout
	log.Level = logrus.InfoLevel
	log.Formatter = &logrus.TextFormatter{ForceColors: true, FullTimestamp: true, TimestampFormat: time.RFC3339}
	log.Hooks = make(logrus.LevelHooks)
	cache.SetLogger(log)

	// Read config
	configPath := "config.json"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	helpers.LoadConfig(configPath)
	config := helpers.GetConfig()

	// Check if the bot is being debugged
	if helpers.ConfigBool(config, "debug", false) {
		log.Level = logrus.DebugLevel
	}

	if jsonFile := helpers.ConfigString(config, "logging.jsonfile", ""); jsonFile != "" {
		fileHook, err := logging.NewLogrusFileHook(jsonFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666, log.Level)
		if err != nil {
			log.WithField("module", "launcher").Error("logrus file hook failed, err:", err.Error())
		} else {
			log.Hooks.Add(fileHook)
			defer fileHook.Close()
		}
	}

	if discordWebhook := helpers.ConfigString(config, "logging.discord_webhook", ""); discordWebhook != "" {
		log.Hooks.Add(discordrus.NewHook(
			discordWebhook,
			logrus.ErrorLevel,
			&discordrus.Opts{
				Username:           "Logging",
				DisableTimestamp:   false,
				TimestampFormat:    "Jan 2 15:04:05.00000",
				EnableCustomColors: true,
				CustomLevelColors: &discordrus.LevelColors{
					Error: 13631488,
					Panic: 13631488,
					Fatal: 13631488,
				},
			},
		))
	}

	log.WithField("module", "launcher").Info("Booting MirrorBot...")

	// Show version
	version.DumpInfo()

	// Start metric server
	metrics.Init(helpers.ConfigString(config, "metrics_address", ""))

	// Call home
	if sentryDSN := helpers.ConfigString(config, "sentry", ""); sentryDSN != "" {
		log.WithField("module", "launcher").Info("[SENTRY] Calling home...")
		err = raven.SetDSN(sentryDSN)
		if err != nil {
			log.WithField("module", "launcher").Fatal("invalid sentry dsn: ", err.Error())
		}
		if version.BOT_VERSION != "UNSET" {
			raven.SetRelease(version.BOT_VERSION)
		}
		log.WithField("module", "launcher").Info("[SENTRY] Someone picked up the phone \\^-^/")
	}

	// Connecting to redis
	var deliveryJournal *journal.Journal
	if redisAddress := helpers.ConfigString(config, "redis.address", ""); redisAddress != "" {
		log.WithField("module", "launcher").Info("Connecting to redis...")
		redisDB, err := helpers.ConfigInt(config, "redis.db", 0)
		if err != nil {
			log.WithField("module", "launcher").Fatal(err.Error())
		}
		redisClient := redis.NewClient(&redis.Options{
			Addr:     redisAddress,
			Password: helpers.ConfigString(config, "redis.password", ""),
			DB:       redisDB,
		})
		err = redisClient.Ping().Err()
		if err != nil {
			log.WithField("module", "launcher").Fatal("connecting to redis failed: ", err.Error())
		}
		cache.SetRedisClient(redisClient)

		journalTTL, err := time.ParseDuration(helpers.ConfigString(config, "redis.journal_ttl", "1h"))
		if err != nil {
			log.WithField("module", "launcher").Fatal("invalid redis.journal_ttl: ", err.Error())
		}
		deliveryJournal = journal.New(cache.GetRedisClient(), journalTTL, journal.DefaultMaxLength)
	}

	// Connect and add event handlers
	discordgo.Logger = func(msgL, caller int, format string, a ...interface{}) {
		pc, file, line, _ := runtime.Caller(caller)

		files := strings.Split(file, "/")
		file = files[len(files)-1]

		name := runtime.FuncForPC(pc).Name()
		fns := strings.Split(name, ".")
		name = fns[len(fns)-1]

		msg := format
		if strings.Contains(msg, "%") {
			msg = fmt.Sprintf(format, a...)
		}

		switch msgL {
		case discordgo.LogError:
			log.WithField("module", "discordgo").Errorf("%s:%d:%s() %s", file, line, name, msg)
		case discordgo.LogWarning:
			log.WithField("module", "discordgo").Warnf("%s:%d:%s() %s", file, line, name, msg)
		case discordgo.LogInformational:
			log.WithField("module", "discordgo").Infof("%s:%d:%s() %s", file, line, name, msg)
		case discordgo.LogDebug:
			log.WithField("module", "discordgo").Debugf("%s:%d:%s() %s", file, line, name, msg)
		}
	}

	token := helpers.ConfigString(config, "discord.token", "")
	if !helpers.ConfigBool(config, "discord.user_account", false) {
		token = "Bot " + token
	}
	log.WithField("module", "launcher").Info("Connecting MirrorBot to discord...")
	discord, err := discordgo.New(token)
	if err != nil {
		panic(err)
	}

	discord.Lock()
	discord.Debug = false
	discord.LogLevel = discordgo.LogInformational
	discord.StateEnabled = true
	discord.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent
	discord.Unlock()
	cache.SetSession(discord)

	// Load mirrors
	mirrorConfigs, err := helpers.ParseMirrorConfigs(config)
	if err != nil {
		log.WithField("module", "launcher").Fatal("invalid mirror config: ", err.Error())
	}
	attachmentTimeout, err := time.ParseDuration(helpers.ConfigString(config, "attachments.timeout", "30s"))
	if err != nil {
		log.WithField("module", "launcher").Fatal("invalid attachments.timeout: ", err.Error())
	}
	attachmentRetries, err := helpers.ConfigInt(config, "attachments.retries", 2)
	if err != nil {
		log.WithField("module", "launcher").Fatal(err.Error())
	}
	newTarget := mirror.WebhookTargetFactory(discord, helpers.NewAttachmentFetcher(attachmentTimeout, attachmentRetries))

	mirrors := make([]*mirror.Mirror, 0, len(mirrorConfigs))
	for _, mirrorConfig := range mirrorConfigs {
		if len(mirrorConfig.ChannelIDs) == 0 {
			log.WithField("module", "launcher").Warnf("mirror %s has no channels, skipping it", mirrorConfig.Name)
			continue
		}
		m, err := mirror.New(mirrorConfig, newTarget)
		if err != nil {
			log.WithField("module", "launcher").Fatal(err.Error())
		}
		mirrors = append(mirrors, m)
	}
	registry := mirror.NewRegistry(mirrors...)
	metrics.MirroredChannels.Set(int64(registry.Len()))
	log.WithField("module", "launcher").Infof("Loaded %s mirrors for %s channels",
		humanize.Comma(int64(len(mirrors))), humanize.Comma(int64(registry.Len())))

	bot := NewBot(
		registry,
		deliveryJournal,
		helpers.ConfigString(config, "log_message", ""),
		helpers.ConfigString(config, "status", ""),
	)

	discord.AddHandler(bot.OnReady)
	discord.AddHandler(bot.OnMessageCreate)
	discord.AddHandler(bot.OnMessageUpdate)
	discord.AddHandlerOnce(metrics.OnReady)

	// Connect to discord
	err = discord.Open()
	if err != nil {
		raven.CaptureErrorAndWait(err, nil)
		panic(err)
	}

	// Make a channel that waits for a os signal
	runtimeChannel := make(chan os.Signal, 1)
	signal.Notify(runtimeChannel, os.Interrupt, syscall.SIGTERM)

	// Wait until the os wants us to shutdown
	<-runtimeChannel

	log.WithField("module", "launcher").Info("MirrorBot is stopping")
	log.WithField("module", "launcher").Info("Disconnecting bot discord session...")
	discord.Close()
	if cache.HasRedisClient() {
		cache.GetRedisClient().Close()
	}
}

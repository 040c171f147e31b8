package cache

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// How long a channel fetched from the API stays valid
var channelTimeout = 15 * time.Minute

type cachedChannel struct {
	channel   *discordgo.Channel
	fetchedAt time.Time
}

var (
	channels      = make(map[string]cachedChannel)
	channelsMutex sync.Mutex
)

// Channel returns the channel from the session state.
// Channels missing from the state (e.g. archived threads) are requested once and cached.
func Channel(id string) (*discordgo.Channel, error) {
	s := GetSession()
	if s.State != nil {
		if channel, err := s.State.Channel(id); err == nil {
			return channel, nil
		}
	}

	channelsMutex.Lock()
	cached, ok := channels[id]
	channelsMutex.Unlock()
	if ok && time.Since(cached.fetchedAt) < channelTimeout {
		return cached.channel, nil
	}

	channel, err := s.Channel(id)
	if err != nil {
		return nil, err
	}

	channelsMutex.Lock()
	channels[id] = cachedChannel{channel: channel, fetchedAt: time.Now()}
	channelsMutex.Unlock()

	return channel, nil
}

package helpers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Seklfreak/mirrorbot/cache"
	"github.com/Seklfreak/mirrorbot/version"
	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sethgrid/pester"
)

var DEFAULT_UA = "MirrorBot/" + version.BOT_VERSION + " (https://github.com/Seklfreak/mirrorbot)"

// AttachmentFetcher downloads message attachments so they can be uploaded to webhooks again
type AttachmentFetcher struct {
	client    *pester.Client
	userAgent string
}

// NewAttachmentFetcher retries failed downloads up to $retries times, pester counts the first attempt too
func NewAttachmentFetcher(timeout time.Duration, retries int) *AttachmentFetcher {
	if retries < 0 {
		retries = 0
	}
	client := pester.NewExtendedClient(&http.Client{
		Timeout: timeout,
	})
	client.Concurrency = 1
	client.MaxRetries = retries + 1
	client.Backoff = pester.ExponentialBackoff

	return &AttachmentFetcher{
		client:    client,
		userAgent: DEFAULT_UA,
	}
}

func (f *AttachmentFetcher) Fetch(ctx context.Context, attachment *discordgo.MessageAttachment) (*discordgo.File, error) {
	request, err := http.NewRequest("GET", attachment.URL, nil)
	if err != nil {
		return nil, err
	}
	request = request.WithContext(ctx)

	// Set custom UA
	request.Header.Set("User-Agent", f.userAgent)

	response, err := f.client.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	// Only continue if code was 200
	if response.StatusCode != http.StatusOK {
		return nil, errors.New("Expected status 200; Got " + strconv.Itoa(response.StatusCode))
	}

	buf := bytes.NewBuffer(nil)
	_, err = io.Copy(buf, response.Body)
	if err != nil {
		return nil, err
	}

	cache.GetLogger().WithField("module", "helpers").Debugf(
		"fetched attachment %s (%s)", attachment.Filename, humanize.Bytes(uint64(buf.Len())))

	return &discordgo.File{
		Name:        attachment.Filename,
		ContentType: attachment.ContentType,
		Reader:      bytes.NewReader(buf.Bytes()),
	}, nil
}

package helpers

import (
	"strings"

	"github.com/pkg/errors"
)

// ParseWebhookURL extracts the webhook ID and token from a webhook URL
func ParseWebhookURL(webhookURL string) (id, token string, err error) {
	parts := WebhookURLRegex.FindStringSubmatch(strings.TrimSpace(webhookURL))
	if len(parts) < 3 {
		return "", "", errors.New("invalid webhook url")
	}
	return parts[1], parts[2], nil
}

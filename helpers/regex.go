package helpers

import "regexp"

var (
	// WebhookURLRegex matches discord webhook URLs, including the ptb and canary hosts
	WebhookURLRegex = regexp.MustCompile(`^https://(?:(?:ptb|canary)\.)?discord(?:app)?\.com/api(?:/v\d+)?/webhooks/(\d+)/([\w-]+)/?(?:\?.*)?$`)
)

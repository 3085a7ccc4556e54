package messaging

import (
	"net/url"
)

// #nosec G101 -- Placeholder text for redacted URLs, not actual credentials
const redactedURLPlaceholder = "amqp://****:****@<host>:<port>/<vhost>"

// redactURL masks the password of a broker URL for error messages.
// Unparseable URLs are replaced entirely.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return redactedURLPlaceholder
	}
	return u.Redacted()
}

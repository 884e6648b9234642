package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

// SensitiveHeaders lists the lowercase header names whose values never reach
// a log line. The HTTP middleware redacts them when dumping request headers
// and the masq layer below catches them when logged as attributes.
//
// Browsers cannot set Authorization on a WebSocket handshake, so clients send
// session tokens as a subprotocol or an x-session-token header instead.
var SensitiveHeaders = map[string]bool{
	"authorization":          true,
	"x-api-key":              true,
	"cookie":                 true,
	"x-session-token":        true,
	"sec-websocket-key":      true,
	"sec-websocket-protocol": true,
}

// sensitiveFields are attribute keys redacted wherever they appear. dsn and
// redis_password come from the store and bus config dumps.
var sensitiveFields = []string{"password", "secret", "token", "dsn", "redis_password"}

var sensitivePrefixes = []string{"secret_", "api_key"}

var (
	bearerPattern       = regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9\-._~+/]+=*`)
	apiKeyInlinePattern = regexp.MustCompile(`(?i)(api[_\-]?key|apikey)\s*[:=]\s*\S+`)

	// Three segments of at least ten characters, so version strings and
	// dotted room ids don't match.
	jwtPattern = regexp.MustCompile(`[a-zA-Z0-9\-_]{10,}\.[a-zA-Z0-9\-_]{10,}\.[a-zA-Z0-9\-_]{10,}`)

	// Userinfo password in a DSN such as postgres://collab:pw@db/collab.
	urlPasswordPattern = regexp.MustCompile(`://[^:/@\s]+:[^@\s]+@`)
)

// newRedactAttr builds the masq ReplaceAttr used by New.
func newRedactAttr() func([]string, slog.Attr) slog.Attr {
	patterns := []*regexp.Regexp{bearerPattern, jwtPattern, apiKeyInlinePattern, urlPasswordPattern}
	opts := make([]masq.Option, 0,
		len(SensitiveHeaders)+len(sensitiveFields)+len(sensitivePrefixes)+len(patterns))

	for name := range SensitiveHeaders {
		opts = append(opts, masq.WithFieldName(name))
	}
	for _, name := range sensitiveFields {
		opts = append(opts, masq.WithFieldName(name))
	}
	for _, p := range sensitivePrefixes {
		opts = append(opts, masq.WithFieldPrefix(p))
	}
	for _, re := range patterns {
		opts = append(opts, masq.WithRegex(re))
	}
	return masq.New(opts...)
}

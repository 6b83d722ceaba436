package gate

import (
	"regexp"
	"strings"
)

var (
	tmeHTTPSRe = regexp.MustCompile(`https://t\.me/([\w@]+)`)
	tmeRe      = regexp.MustCompile(`t\.me/([\w@]+)`)
	numericRe  = regexp.MustCompile(`^-?\d+$`)
	digitsRe   = regexp.MustCompile(`^\d+$`)
)

// NormalizeChannel canonicalizes a channel reference into its identity
// form: "@name" for public channels, the bare numeric chat ID otherwise.
// It is idempotent: NormalizeChannel(NormalizeChannel(x)) == NormalizeChannel(x).
func NormalizeChannel(input string) string {
	// https://t.me/channel_name
	if strings.Contains(input, "https://t.me/") {
		if m := tmeHTTPSRe.FindStringSubmatch(input); m != nil {
			return withAtPrefix(m[1])
		}
	}

	// t.me/channel_name
	if strings.Contains(input, "t.me/") {
		if m := tmeRe.FindStringSubmatch(input); m != nil {
			return withAtPrefix(m[1])
		}
	}

	// Already @channel_name
	if strings.HasPrefix(input, "@") {
		return input
	}

	// Numeric chat ID (negative for channels/supergroups)
	if numericRe.MatchString(input) {
		return input
	}

	// Bare username without @
	if !strings.HasPrefix(input, "-") && !digitsRe.MatchString(input) {
		return "@" + input
	}

	return input
}

func withAtPrefix(name string) string {
	if strings.HasPrefix(name, "@") {
		return name
	}
	return "@" + name
}

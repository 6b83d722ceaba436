package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeChannel(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"https url", "https://t.me/mychannel", "@mychannel"},
		{"https url with at", "https://t.me/@mychannel", "@mychannel"},
		{"bare tme url", "t.me/mychannel", "@mychannel"},
		{"already prefixed", "@mychannel", "@mychannel"},
		{"negative chat id", "-1001234567890", "-1001234567890"},
		{"positive chat id", "1234567890", "1234567890"},
		{"bare username", "mychannel", "@mychannel"},
		{"username with underscore", "my_channel", "@my_channel"},
		{"url with trailing text", "check https://t.me/news please", "@news"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeChannel(tc.input))
		})
	}
}

func TestNormalizeChannelIdempotent(t *testing.T) {
	inputs := []string{
		"https://t.me/mychannel",
		"t.me/mychannel",
		"@mychannel",
		"mychannel",
		"-1001234567890",
	}
	for _, input := range inputs {
		once := NormalizeChannel(input)
		assert.Equal(t, once, NormalizeChannel(once), "input %q", input)
	}
}

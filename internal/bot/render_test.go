package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatebot/internal/models"
)

func TestChannelListMessageSinglePage(t *testing.T) {
	channels := []models.Channel{
		{ID: "ch-1", ChannelID: "@alpha"},
		{ID: "ch-2", ChannelID: "-1001234"},
	}

	text, markup := channelListMessage(channels, 0)
	assert.Contains(t, text, "стр. 1/1")
	assert.Contains(t, text, "1. <code>@alpha</code>")
	assert.Contains(t, text, "2. <code>-1001234</code>")
	assert.Nil(t, markup, "single page needs no nav buttons")
}

func TestRemoveChannelListMessage(t *testing.T) {
	var channels []models.Channel
	for i := 0; i < 11; i++ {
		channels = append(channels, models.Channel{
			ID:        string(rune('a' + i)),
			ChannelID: "@chan" + string(rune('a'+i)),
		})
	}

	text, markup, page := removeChannelListMessage(channels, 0)
	assert.Contains(t, text, "Выберите канал для удаления")
	assert.Contains(t, text, "Или введите номер/название канала вручную")
	require.NotNil(t, markup)
	assert.Equal(t, 0, page.Index)
	assert.Equal(t, 2, page.TotalPages)

	// 10 select rows plus one nav row with the next button.
	require.Len(t, markup.InlineKeyboard, 11)
	nav := markup.InlineKeyboard[10]
	require.Len(t, nav, 1)
	assert.Equal(t, btnNextPage, nav[0].Text)
}

func TestAccessMessage(t *testing.T) {
	assert.Equal(t, msgNoAccessLink, accessMessage(nil))

	links := []models.AccessLink{
		{ID: "ln-1", URL: "https://example.com/a"},
		{ID: "ln-2", URL: "https://example.com/b"},
	}
	text := accessMessage(links)
	assert.Contains(t, text, "1. https://example.com/a")
	assert.Contains(t, text, "2. https://example.com/b")
}

func TestSubscriptionRequiredMessage(t *testing.T) {
	text := subscriptionRequiredMessage([]string{"@alpha", "-100987"})

	assert.Contains(t, text, "❌ Вы не подписаны на все необходимые каналы.")
	assert.Contains(t, text, `<a href="https://t.me/alpha">@alpha</a>`)
	assert.Contains(t, text, "<code>Канал -100987</code>")
	assert.Contains(t, text, "нажмите кнопку ниже")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 30))
	assert.Equal(t, "https://example.com/very/long/", truncate("https://example.com/very/long/path/here", 30))
	assert.Equal(t, "привет", truncate("привет", 10))
}

package gate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gatebot/internal/models"
)

type stubChannels struct {
	channels []models.Channel
	err      error
}

func (s stubChannels) FindAll() ([]models.Channel, error) {
	return s.channels, s.err
}

type stubMembers struct {
	statuses map[string]string
	errs     map[string]error
}

func (s stubMembers) GetChatMember(channelID string, _ int64) (string, error) {
	if err, ok := s.errs[channelID]; ok {
		return "", err
	}
	return s.statuses[channelID], nil
}

func chans(ids ...string) []models.Channel {
	out := make([]models.Channel, len(ids))
	for i, id := range ids {
		out[i] = models.Channel{ID: id, ChannelID: id}
	}
	return out
}

func TestCheckAllSubscribed(t *testing.T) {
	checker := NewSubscriptionChecker(
		stubChannels{channels: chans("@a", "@b", "@c")},
		stubMembers{statuses: map[string]string{"@a": "member", "@b": "administrator", "@c": "creator"}},
		zap.NewNop(),
	)

	verdict := checker.Check(42)
	assert.True(t, verdict.OK)
	assert.Empty(t, verdict.FailedChannels)
	assert.Empty(t, verdict.Errors)
}

func TestCheckPartiallySubscribed(t *testing.T) {
	checker := NewSubscriptionChecker(
		stubChannels{channels: chans("@a", "@b", "@c")},
		stubMembers{statuses: map[string]string{"@a": "member", "@b": "left", "@c": "member"}},
		zap.NewNop(),
	)

	verdict := checker.Check(42)
	assert.False(t, verdict.OK)
	assert.Equal(t, []string{"@b"}, verdict.FailedChannels)
	assert.Empty(t, verdict.Errors)
}

func TestCheckPreservesChannelOrder(t *testing.T) {
	checker := NewSubscriptionChecker(
		stubChannels{channels: chans("@z", "@a", "@m")},
		stubMembers{statuses: map[string]string{"@z": "left", "@a": "kicked", "@m": "left"}},
		zap.NewNop(),
	)

	verdict := checker.Check(42)
	assert.Equal(t, []string{"@z", "@a", "@m"}, verdict.FailedChannels)
}

func TestCheckQueryErrorFailsChannel(t *testing.T) {
	checker := NewSubscriptionChecker(
		stubChannels{channels: chans("@a", "@b")},
		stubMembers{
			statuses: map[string]string{"@a": "member"},
			errs:     map[string]error{"@b": errors.New("Bad Request: chat not found")},
		},
		zap.NewNop(),
	)

	verdict := checker.Check(42)
	assert.False(t, verdict.OK)
	assert.Equal(t, []string{"@b"}, verdict.FailedChannels)
	require.Len(t, verdict.Errors, 1)
	assert.Equal(t, "@b", verdict.Errors[0].Channel)
	assert.Contains(t, verdict.Errors[0].Message, "не найден")
}

func TestCheckChannelLoadFailure(t *testing.T) {
	checker := NewSubscriptionChecker(
		stubChannels{err: errors.New("db down")},
		stubMembers{},
		zap.NewNop(),
	)

	verdict := checker.Check(42)
	assert.False(t, verdict.OK)
	assert.Empty(t, verdict.FailedChannels)
	require.Len(t, verdict.Errors, 1)
	assert.Equal(t, "system", verdict.Errors[0].Channel)
	assert.Equal(t, "Ошибка при получении списка каналов", verdict.Errors[0].Message)
}

func TestCheckEmptyChannelSet(t *testing.T) {
	checker := NewSubscriptionChecker(stubChannels{}, stubMembers{}, zap.NewNop())

	verdict := checker.Check(42)
	assert.True(t, verdict.OK)
}

func TestIsSubscribedStatus(t *testing.T) {
	for _, status := range []string{"member", "administrator", "creator"} {
		assert.True(t, IsSubscribedStatus(status), status)
	}
	for _, status := range []string{"left", "kicked", "restricted", ""} {
		assert.False(t, IsSubscribedStatus(status), status)
	}
}

func TestClassifyMemberError(t *testing.T) {
	cases := []struct {
		errMsg string
		want   string
	}{
		{"Bad Request: chat not found", "Канал @c не найден. Проверьте имя или ID канала."},
		{"Bad Request: user not a member", "Бот не состоит в канале @c."},
		{"Bad Request: member list is inaccessible", "Бот не может получить доступ к списку подписчиков @c. Убедитесь, что бот состоит в канале."},
		{"forbidden: bot was kicked", "Бот не может получить доступ к @c (проблема с правами)."},
		{"Bad Request: group chat is private", "Канал @c приватный и недоступен."},
		{"some unexpected error", "Не удалось проверить подписку на @c."},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyMemberError(tc.errMsg, "@c"), tc.errMsg)
	}
}

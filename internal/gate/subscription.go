package gate

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"gatebot/internal/models"
)

// MembershipClient resolves a user's member status in a channel. The
// error text must carry the transport's raw description: the verdict
// classifier substring-matches on it.
type MembershipClient interface {
	GetChatMember(channelID string, userID int64) (status string, err error)
}

// ChannelSource yields the configured channels in stored order.
type ChannelSource interface {
	FindAll() ([]models.Channel, error)
}

// ChannelError is one classified membership-query failure.
type ChannelError struct {
	Channel string
	Message string
}

// Verdict is the outcome of checking one user against all configured
// channels. OK is true iff FailedChannels is empty.
type Verdict struct {
	OK             bool
	FailedChannels []string
	Errors         []ChannelError
}

// subscribedStatuses are the member statuses that count as subscribed.
var subscribedStatuses = map[string]bool{
	"member":        true,
	"administrator": true,
	"creator":       true,
}

// IsSubscribedStatus reports whether a chat member status grants access.
func IsSubscribedStatus(status string) bool {
	return subscribedStatuses[status]
}

// SubscriptionChecker verifies a user's membership across all
// configured channels and aggregates the result into a single verdict.
type SubscriptionChecker struct {
	channels ChannelSource
	members  MembershipClient
	logger   *zap.Logger
}

func NewSubscriptionChecker(channels ChannelSource, members MembershipClient, logger *zap.Logger) *SubscriptionChecker {
	return &SubscriptionChecker{channels: channels, members: members, logger: logger}
}

// Check queries each channel sequentially in stored order, so
// FailedChannels keeps the configured ordering across checks. An empty
// channel set is trivially satisfied.
func (c *SubscriptionChecker) Check(userID int64) Verdict {
	verdict := Verdict{OK: true}

	channels, err := c.channels.FindAll()
	if err != nil {
		c.logger.Error("failed to load channel list", zap.Error(err))
		return Verdict{
			OK: false,
			Errors: []ChannelError{{
				Channel: "system",
				Message: "Ошибка при получении списка каналов",
			}},
		}
	}

	for _, channel := range channels {
		status, err := c.members.GetChatMember(channel.ChannelID, userID)
		if err != nil {
			c.logger.Error("membership query failed",
				zap.String("channel", channel.ChannelID),
				zap.Int64("user_id", userID),
				zap.Error(err))
			verdict.OK = false
			verdict.FailedChannels = append(verdict.FailedChannels, channel.ChannelID)
			verdict.Errors = append(verdict.Errors, ChannelError{
				Channel: channel.ChannelID,
				Message: ClassifyMemberError(err.Error(), channel.ChannelID),
			})
			continue
		}

		if !IsSubscribedStatus(status) {
			verdict.OK = false
			verdict.FailedChannels = append(verdict.FailedChannels, channel.ChannelID)
		}
	}

	return verdict
}

// ClassifyMemberError maps a raw membership-query error onto a user
// message. Matching is on error text because that is all the Bot API
// exposes; the checks are ordered, first match wins.
func ClassifyMemberError(errMsg, channel string) string {
	switch {
	case strings.Contains(errMsg, "not found"):
		return fmt.Sprintf("Канал %s не найден. Проверьте имя или ID канала.", channel)
	case strings.Contains(errMsg, "user not a member"):
		return fmt.Sprintf("Бот не состоит в канале %s.", channel)
	case strings.Contains(errMsg, "member list is inaccessible"):
		return fmt.Sprintf("Бот не может получить доступ к списку подписчиков %s. Убедитесь, что бот состоит в канале.", channel)
	case strings.Contains(errMsg, "forbidden"):
		return fmt.Sprintf("Бот не может получить доступ к %s (проблема с правами).", channel)
	case strings.Contains(errMsg, "private"):
		return fmt.Sprintf("Канал %s приватный и недоступен.", channel)
	}
	return fmt.Sprintf("Не удалось проверить подписку на %s.", channel)
}

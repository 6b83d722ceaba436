package bot

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"gatebot/internal/config"
	"gatebot/internal/gate"
	"gatebot/internal/pkg/telegram"
	"gatebot/internal/repository"
)

// Sender is the outbound side of the transport, narrowed to what the
// conversation engine needs.
type Sender interface {
	Send(chatID int64, text string, markup *tele.ReplyMarkup) error
	Respond(callbackID string, text string, showAlert bool) error
}

// Bot wraps the telebot instance and handlers.
type Bot struct {
	tb         *tele.Bot
	webhook    *tele.Webhook
	useWebhook bool
	cfg        *config.Config
	repos      *Repos
	engine     *AdminEngine
	checker    *gate.SubscriptionChecker
	logger     *zap.Logger
}

// Repos bundles the repositories used by bot handlers.
type Repos struct {
	Channel *repository.ChannelRepository
	Link    *repository.AccessLinkRepository
}

// New creates and configures a new Bot instance.
func New(cfg *config.Config, repos *Repos, botAPI *telegram.BotAPI, sessions gate.SessionStore, logger *zap.Logger) (*Bot, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Bot.UpdateMode))
	if mode == "" {
		mode = "auto"
	}

	useWebhook := true
	switch mode {
	case "polling":
		useWebhook = false
	case "webhook":
		useWebhook = true
	default: // auto
		useWebhook = strings.TrimSpace(cfg.Bot.WebhookURL) != ""
	}

	var poller tele.Poller
	var webhook *tele.Webhook
	if useWebhook {
		if strings.TrimSpace(cfg.Bot.WebhookURL) == "" {
			return nil, fmt.Errorf("BOT_WEBHOOK_URL is required when BOT_UPDATE_MODE=webhook")
		}
		webhook = &tele.Webhook{
			Listen:   "", // Empty: we mount on Echo instead of telebot's own server
			Endpoint: &tele.WebhookEndpoint{PublicURL: cfg.Bot.WebhookURL},
		}
		poller = webhook
	} else {
		poller = &tele.LongPoller{Timeout: 10 * time.Second}
	}

	pref := tele.Settings{
		Token:  cfg.Bot.Token,
		Poller: poller,
		OnError: func(err error, c tele.Context) {
			logger.Error("telebot error", zap.Error(err))
		},
	}

	tb, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telebot: %w", err)
	}

	b := &Bot{
		tb:         tb,
		webhook:    webhook,
		useWebhook: useWebhook,
		cfg:        cfg,
		repos:      repos,
		logger:     logger,
	}
	b.engine = NewAdminEngine(repos.Channel, repos.Link, sessions, botAPI, &cfg.Bot, b, tb.Me.ID, logger)
	b.checker = gate.NewSubscriptionChecker(repos.Channel, botAPI, logger)

	b.registerHandlers()

	return b, nil
}

// WebhookHandler returns the webhook handler for mounting on Echo.
// Returns nil when running in long-polling mode.
func (b *Bot) WebhookHandler() http.Handler {
	if b.webhook == nil {
		return nil
	}
	return b.webhook
}

// Start begins polling/webhook processing.
func (b *Bot) Start() {
	if b.useWebhook {
		b.logger.Info("Starting Telegram bot", zap.String("mode", "webhook"), zap.String("webhook_url", b.cfg.Bot.WebhookURL))
	} else {
		// Long polling requires webhook to be removed first.
		if err := b.tb.RemoveWebhook(true); err != nil {
			b.logger.Warn("Failed to remove webhook before long polling", zap.Error(err))
		}
		b.logger.Info("Starting Telegram bot", zap.String("mode", "polling"))
	}
	b.tb.Start()
}

// Stop gracefully shuts down the bot.
func (b *Bot) Stop() {
	b.tb.Stop()
}

// ── Sender ────────────────────────────────────────────────────────────

func (b *Bot) Send(chatID int64, text string, markup *tele.ReplyMarkup) error {
	opts := []interface{}{tele.ModeHTML}
	if markup != nil {
		opts = append(opts, markup)
	}
	_, err := b.tb.Send(tele.ChatID(chatID), text, opts...)
	return err
}

func (b *Bot) Respond(callbackID string, text string, showAlert bool) error {
	if text == "" && !showAlert {
		return b.tb.Respond(&tele.Callback{ID: callbackID})
	}
	return b.tb.Respond(&tele.Callback{ID: callbackID}, &tele.CallbackResponse{Text: text, ShowAlert: showAlert})
}

// ── Handlers ──────────────────────────────────────────────────────────

func (b *Bot) registerHandlers() {
	b.tb.Handle("/start", b.handleStart)
	b.tb.Handle("/admin_add_channel", b.adminCommand(b.engine.StartAddChannel))
	b.tb.Handle("/admin_remove_channel", b.adminCommand(b.engine.StartRemoveChannel))
	b.tb.Handle("/admin_add_link", b.adminCommand(b.engine.StartAddLink))
	b.tb.Handle("/admin_remove_link", b.adminCommand(b.engine.StartRemoveLink))
	b.tb.Handle("/admin_list_channels", b.adminCommand(func(ctx context.Context, chatID, userID int64) error {
		return b.engine.ListChannels(ctx, chatID, userID, 0)
	}))
	b.tb.Handle("/admin_list_links", b.adminCommand(func(ctx context.Context, chatID, userID int64) error {
		return b.engine.ListLinks(ctx, chatID, userID, 0)
	}))
	b.tb.Handle(tele.OnText, b.handleText)
	b.tb.Handle(tele.OnCallback, b.handleCallback)
}

func (b *Bot) adminCommand(fn func(ctx context.Context, chatID, userID int64) error) tele.HandlerFunc {
	return func(c tele.Context) error {
		return fn(context.Background(), c.Chat().ID, c.Sender().ID)
	}
}

// ── /start ────────────────────────────────────────────────────────────

func (b *Bot) handleStart(c tele.Context) error {
	userID := c.Sender().ID
	chatID := c.Chat().ID

	if b.cfg.Bot.IsAdmin(userID) {
		return b.Send(chatID, adminHelp, adminMenuKeyboard())
	}

	return b.checkAndNotify(chatID, userID)
}

// ── Text routing ──────────────────────────────────────────────────────

func (b *Bot) handleText(c tele.Context) error {
	userID := c.Sender().ID
	chatID := c.Chat().ID
	text := c.Text()

	handled, err := b.engine.HandleText(context.Background(), chatID, userID, text)
	if handled || err != nil {
		return err
	}
	if b.cfg.Bot.IsAdmin(userID) {
		return nil
	}

	if text == btnCheckSub {
		return b.checkAndNotify(chatID, userID)
	}
	return nil
}

// ── Callback queries ──────────────────────────────────────────────────

func (b *Bot) handleCallback(c tele.Context) error {
	raw := c.Callback()

	// telebot prefixes its own unique-button callbacks with \f.
	data := strings.TrimPrefix(raw.Data, "\f")

	cb, ok := gate.DecodeCallback(data)
	if !ok {
		b.logger.Debug("unknown callback", zap.String("data", data), zap.Int64("user", raw.Sender.ID))
		return c.Respond()
	}

	if cb.Kind == gate.CallbackCheckSubscription {
		return b.handleCheckSubscription(c)
	}

	q := CallbackQuery{
		ID:         raw.ID,
		FromUserID: raw.Sender.ID,
		Data:       data,
	}
	if raw.Message != nil {
		q.ChatID = raw.Message.Chat.ID
		q.MessageID = raw.Message.ID
	}

	return b.engine.HandleCallback(context.Background(), q, cb)
}

// ── Subscription check path ───────────────────────────────────────────

// checkAndNotify runs the subscription check for an ordinary user and
// renders either the access links or the list of channels still missing.
func (b *Bot) checkAndNotify(chatID, userID int64) error {
	verdict := b.checker.Check(userID)

	if isSystemFailure(verdict) {
		return b.Send(chatID, msgCheckFailed, nil)
	}

	if verdict.OK {
		links, err := b.repos.Link.FindAll()
		if err != nil {
			b.logger.Error("access link list failed", zap.Error(err))
			return b.Send(chatID, msgCheckFailed, nil)
		}
		message := "✅ Отлично! Вы подписаны на все необходимые каналы.\n\n" + accessMessage(links)
		return b.Send(chatID, message, checkSubscriptionReplyKeyboard())
	}

	message := subscriptionRequiredMessage(verdict.FailedChannels)
	return b.Send(chatID, message, checkSubscriptionReplyKeyboard())
}

// handleCheckSubscription serves the inline retry button: the existing
// message is edited in place when possible, otherwise a new one is sent.
func (b *Bot) handleCheckSubscription(c tele.Context) error {
	userID := c.Sender().ID
	verdict := b.checker.Check(userID)

	if isSystemFailure(verdict) {
		return c.Respond(&tele.CallbackResponse{Text: msgCheckErrAlert, ShowAlert: true})
	}

	if verdict.OK {
		links, err := b.repos.Link.FindAll()
		if err != nil {
			b.logger.Error("access link list failed", zap.Error(err))
			return c.Respond(&tele.CallbackResponse{Text: msgCheckErrAlert, ShowAlert: true})
		}
		message := "✅ Отлично! Вы подписаны на все необходимые каналы.\n\n" + accessMessage(links)

		if err := c.Edit(message, tele.ModeHTML); err != nil {
			b.logger.Debug("edit failed, sending new message", zap.Int64("user_id", userID), zap.Error(err))
			if err := c.Send(message, tele.ModeHTML); err != nil {
				b.logger.Error("failed to send access message", zap.Int64("user_id", userID), zap.Error(err))
			}
		}
		return c.Respond(&tele.CallbackResponse{Text: msgAccessOpened})
	}

	message := subscriptionRequiredMessage(verdict.FailedChannels)
	markup := checkSubscriptionInlineKeyboard()

	if err := c.Edit(message, markup, tele.ModeHTML); err != nil {
		b.logger.Debug("edit failed, sending new message", zap.Int64("user_id", userID), zap.Error(err))
		if err := c.Send(message, markup, tele.ModeHTML); err != nil {
			b.logger.Error("failed to send subscription message", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	return c.Respond(&tele.CallbackResponse{Text: msgNotSubscribed, ShowAlert: true})
}

// isSystemFailure reports whether the verdict failed because the
// channel list itself could not be loaded.
func isSystemFailure(v gate.Verdict) bool {
	return !v.OK && len(v.FailedChannels) == 0 && len(v.Errors) > 0 && v.Errors[0].Channel == "system"
}

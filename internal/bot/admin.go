package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"gatebot/internal/gate"
	"gatebot/internal/models"
)

// AdminDirectory answers whether a user may use the admin surface.
type AdminDirectory interface {
	IsAdmin(userID int64) bool
}

// ChannelRepo is the persistence surface the admin flows need for channels.
type ChannelRepo interface {
	FindAll() ([]models.Channel, error)
	FindByID(id string) (*models.Channel, error)
	FindByChannelID(channelID string) (*models.Channel, error)
	Create(channel *models.Channel) error
	Delete(id string) error
}

// LinkRepo is the persistence surface the admin flows need for access links.
type LinkRepo interface {
	FindAll() ([]models.AccessLink, error)
	FindByID(id string) (*models.AccessLink, error)
	FindByURL(url string) (*models.AccessLink, error)
	Create(link *models.AccessLink) error
	Delete(id string) error
}

// CallbackQuery is an inline-button interaction validated at the
// transport boundary before it enters the state machine.
type CallbackQuery struct {
	ID         string
	FromUserID int64
	ChatID     int64
	MessageID  int
	Data       string
}

// AdminEngine drives the multi-step admin flows (add/remove channel,
// add/remove link) over the session store.
type AdminEngine struct {
	channels ChannelRepo
	links    LinkRepo
	sessions gate.SessionStore
	members  gate.MembershipClient
	admins   AdminDirectory
	sender   Sender
	botID    int64
	logger   *zap.Logger
	locks    userLocks
}

func NewAdminEngine(
	channels ChannelRepo,
	links LinkRepo,
	sessions gate.SessionStore,
	members gate.MembershipClient,
	admins AdminDirectory,
	sender Sender,
	botID int64,
	logger *zap.Logger,
) *AdminEngine {
	return &AdminEngine{
		channels: channels,
		links:    links,
		sessions: sessions,
		members:  members,
		admins:   admins,
		sender:   sender,
		botID:    botID,
		logger:   logger,
	}
}

// userLocks serializes session read-decide-write sequences per user so
// two rapid inputs from the same user cannot observe a half-updated
// session. Different users never contend.
type userLocks struct {
	mu sync.Mutex
	m  map[int64]*sync.Mutex
}

func (l *userLocks) forUser(userID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.m == nil {
		l.m = make(map[int64]*sync.Mutex)
	}
	lock, ok := l.m[userID]
	if !ok {
		lock = &sync.Mutex{}
		l.m[userID] = lock
	}
	return lock
}

// ── Flow entry points ─────────────────────────────────────────────────

// StartAddChannel opens the add-channel flow: the next text message
// from this admin is taken as the channel reference.
func (e *AdminEngine) StartAddChannel(ctx context.Context, chatID, userID int64) error {
	if !e.admins.IsAdmin(userID) {
		return e.sender.Send(chatID, msgNoPermission, nil)
	}
	if err := e.sessions.Set(ctx, userID, gate.Session{Action: gate.ActionAddChannel, Step: gate.StepWaitingInput}); err != nil {
		return e.failStep(ctx, chatID, userID, msgAddChannelFailed, err)
	}
	return e.sender.Send(chatID, msgAddChannelPrompt, nil)
}

// StartAddLink opens the add-link flow.
func (e *AdminEngine) StartAddLink(ctx context.Context, chatID, userID int64) error {
	if !e.admins.IsAdmin(userID) {
		return e.sender.Send(chatID, msgNoPermission, nil)
	}
	if err := e.sessions.Set(ctx, userID, gate.Session{Action: gate.ActionAddLink, Step: gate.StepWaitingInput}); err != nil {
		return e.failStep(ctx, chatID, userID, msgAddLinkFailed, err)
	}
	return e.sender.Send(chatID, msgAddLinkPrompt, nil)
}

// StartRemoveChannel shows page 0 of the channel selection list. The
// pending removal resolves by button tap or by typed text alike.
func (e *AdminEngine) StartRemoveChannel(ctx context.Context, chatID, userID int64) error {
	if !e.admins.IsAdmin(userID) {
		return e.sender.Send(chatID, msgNoPermission, nil)
	}
	if err := e.sessions.Set(ctx, userID, gate.Session{Action: gate.ActionRemoveChannel, Step: gate.StepWaitingSelection}); err != nil {
		return e.failStep(ctx, chatID, userID, msgRemoveChannelFailed, err)
	}
	return e.showRemoveChannelList(ctx, chatID, userID, 0)
}

// StartRemoveLink shows page 0 of the link selection list.
func (e *AdminEngine) StartRemoveLink(ctx context.Context, chatID, userID int64) error {
	if !e.admins.IsAdmin(userID) {
		return e.sender.Send(chatID, msgNoPermission, nil)
	}
	if err := e.sessions.Set(ctx, userID, gate.Session{Action: gate.ActionRemoveLink, Step: gate.StepWaitingSelection}); err != nil {
		return e.failStep(ctx, chatID, userID, msgRemoveLinkFailed, err)
	}
	return e.showRemoveLinkList(ctx, chatID, userID, 0)
}

// ListChannels renders one page of the channel list. Stateless: no
// session is created or consulted.
func (e *AdminEngine) ListChannels(ctx context.Context, chatID, userID int64, page int) error {
	if !e.admins.IsAdmin(userID) {
		return e.sender.Send(chatID, msgNoPermission, nil)
	}
	return e.renderChannelList(chatID, page)
}

// ListLinks renders one page of the access link list.
func (e *AdminEngine) ListLinks(ctx context.Context, chatID, userID int64, page int) error {
	if !e.admins.IsAdmin(userID) {
		return e.sender.Send(chatID, msgNoPermission, nil)
	}
	return e.renderLinkList(chatID, page)
}

// ── Text input ────────────────────────────────────────────────────────

// HandleText consumes a free-text message from an admin: reply keyboard
// labels start flows, any other text resolves a pending waiting_input
// step. Returns false when the message is not for the admin surface.
func (e *AdminEngine) HandleText(ctx context.Context, chatID, userID int64, text string) (bool, error) {
	if text == "" || strings.HasPrefix(text, "/") {
		return false, nil
	}
	if !e.admins.IsAdmin(userID) {
		return false, nil
	}

	switch text {
	case btnAddChannel:
		return true, e.StartAddChannel(ctx, chatID, userID)
	case btnListChannels:
		return true, e.ListChannels(ctx, chatID, userID, 0)
	case btnRemoveChannel:
		return true, e.StartRemoveChannel(ctx, chatID, userID)
	case btnAddLink:
		return true, e.StartAddLink(ctx, chatID, userID)
	case btnListLinks:
		return true, e.ListLinks(ctx, chatID, userID, 0)
	case btnRemoveLink:
		return true, e.StartRemoveLink(ctx, chatID, userID)
	}

	lock := e.locks.forUser(userID)
	lock.Lock()
	defer lock.Unlock()

	session, err := e.sessions.Get(ctx, userID)
	if err != nil {
		e.logger.Error("session lookup failed", zap.Int64("user_id", userID), zap.Error(err))
		return false, nil
	}
	if session == nil || session.Step != gate.StepWaitingInput {
		return false, nil
	}

	// A flow is one input attempt: the session is released whatever the
	// outcome, so a downstream failure can never leave the admin stuck.
	defer func() {
		if err := e.sessions.Delete(ctx, userID); err != nil {
			e.logger.Error("session delete failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}()

	switch session.Action {
	case gate.ActionAddChannel:
		return true, e.addChannel(ctx, chatID, userID, text)
	case gate.ActionRemoveChannel:
		return true, e.removeChannelByText(ctx, chatID, userID, text)
	case gate.ActionAddLink:
		return true, e.addLink(ctx, chatID, userID, text)
	case gate.ActionRemoveLink:
		return true, e.removeLinkByText(ctx, chatID, userID, text)
	}
	return true, nil
}

// ── Callbacks ─────────────────────────────────────────────────────────

// HandleCallback routes a decoded admin callback. Selection and remove-
// pagination callbacks need a live session with the matching action;
// anything else gets a "session expired" alert and no state change.
func (e *AdminEngine) HandleCallback(ctx context.Context, q CallbackQuery, cb gate.Callback) error {
	lock := e.locks.forUser(q.FromUserID)
	lock.Lock()
	defer lock.Unlock()

	var err error
	switch cb.Kind {
	case gate.CallbackListChannelsPage:
		err = e.renderChannelList(q.ChatID, cb.Page)
	case gate.CallbackListLinksPage:
		err = e.renderLinkList(q.ChatID, cb.Page)
	case gate.CallbackNextPageRemoveChannel, gate.CallbackPrevPageRemoveChannel:
		return e.turnRemovePage(ctx, q, cb.Kind == gate.CallbackNextPageRemoveChannel, gate.ActionRemoveChannel)
	case gate.CallbackNextPageRemoveLink, gate.CallbackPrevPageRemoveLink:
		return e.turnRemovePage(ctx, q, cb.Kind == gate.CallbackNextPageRemoveLink, gate.ActionRemoveLink)
	case gate.CallbackSelectRemoveChannel:
		return e.selectRemove(ctx, q, gate.ActionRemoveChannel, cb.EntityID)
	case gate.CallbackSelectRemoveLink:
		return e.selectRemove(ctx, q, gate.ActionRemoveLink, cb.EntityID)
	}

	if err != nil {
		e.logger.Error("callback handling failed", zap.String("data", q.Data), zap.Error(err))
		return e.sender.Respond(q.ID, msgCallbackErr, true)
	}
	return e.sender.Respond(q.ID, "", false)
}

// turnRemovePage advances the selection list by one page. Pagination
// does not consume the flow: the session stays live, only its page moves.
func (e *AdminEngine) turnRemovePage(ctx context.Context, q CallbackQuery, next bool, action gate.Action) error {
	session, err := e.sessions.Get(ctx, q.FromUserID)
	if err != nil {
		e.logger.Error("session lookup failed", zap.Int64("user_id", q.FromUserID), zap.Error(err))
		return e.sender.Respond(q.ID, msgCallbackErr, true)
	}
	if session == nil || session.Action != action {
		return e.sender.Respond(q.ID, msgSessionGone, true)
	}

	page := session.Page + 1
	if !next {
		page = session.Page - 1
		if page < 0 {
			page = 0
		}
	}

	if action == gate.ActionRemoveChannel {
		err = e.showRemoveChannelList(ctx, q.ChatID, q.FromUserID, page)
	} else {
		err = e.showRemoveLinkList(ctx, q.ChatID, q.FromUserID, page)
	}
	if err != nil {
		return err
	}
	return e.sender.Respond(q.ID, "", false)
}

// selectRemove deletes the entity a selection button refers to.
func (e *AdminEngine) selectRemove(ctx context.Context, q CallbackQuery, action gate.Action, entityID string) error {
	session, err := e.sessions.Get(ctx, q.FromUserID)
	if err != nil {
		e.logger.Error("session lookup failed", zap.Int64("user_id", q.FromUserID), zap.Error(err))
		return e.sender.Respond(q.ID, msgCallbackErr, true)
	}
	if session == nil || session.Action != action {
		return e.sender.Respond(q.ID, msgSessionGone, true)
	}

	if action == gate.ActionRemoveChannel {
		err = e.removeChannelByID(ctx, q.ChatID, q.FromUserID, entityID)
	} else {
		err = e.removeLinkByID(ctx, q.ChatID, q.FromUserID, entityID)
	}
	if err != nil {
		return err
	}
	return e.sender.Respond(q.ID, "", false)
}

// ── Channel steps ─────────────────────────────────────────────────────

func (e *AdminEngine) addChannel(ctx context.Context, chatID, userID int64, input string) error {
	channelID := gate.NormalizeChannel(input)

	existing, err := e.channels.FindByChannelID(channelID)
	if err != nil {
		e.logger.Error("channel lookup failed", zap.String("channel", channelID), zap.Error(err))
		return e.sender.Send(chatID, msgAddChannelFailed, nil)
	}
	if existing != nil {
		return e.sender.Send(chatID, fmt.Sprintf("⚠️ Канал %s уже добавлен.", channelID), nil)
	}

	// The bot must see the channel itself, or later membership checks
	// against it would fail for every user.
	status, err := e.members.GetChatMember(channelID, e.botID)
	if err != nil {
		msg := fmt.Sprintf("⚠️ Не удалось проверить доступ к каналу %s.\n\n", channelID) + classifyAccessError(err.Error())
		return e.sender.Send(chatID, msg, nil)
	}
	if !gate.IsSubscribedStatus(status) {
		return e.sender.Send(chatID, fmt.Sprintf("⚠️ Бот не состоит в канале %s. Добавьте бота в канал и попробуйте снова.", channelID), nil)
	}

	if err := e.channels.Create(&models.Channel{ChannelID: channelID, AddedBy: userID}); err != nil {
		e.logger.Error("channel create failed", zap.String("channel", channelID), zap.Error(err))
		return e.sender.Send(chatID, msgAddChannelFailed, nil)
	}

	e.logger.Info("channel added", zap.String("channel", channelID), zap.Int64("added_by", userID))
	return e.sender.Send(chatID, fmt.Sprintf("✅ Канал %s успешно добавлен в список проверки.", channelID), nil)
}

// classifyAccessError maps the raw access-check error onto the hint
// shown to the admin during the add-channel flow.
func classifyAccessError(errMsg string) string {
	switch {
	case strings.Contains(errMsg, "not found"):
		return "Канал не найден. Проверьте имя или ID канала."
	case strings.Contains(errMsg, "member list is inaccessible"):
		return "Бот не может получить доступ к списку подписчиков. Убедитесь, что бот добавлен в канал как администратор."
	case strings.Contains(errMsg, "forbidden"):
		return "Бот не имеет прав доступа к каналу. Добавьте бота в канал."
	}
	return "Ошибка: " + errMsg
}

func (e *AdminEngine) removeChannelByText(ctx context.Context, chatID, userID int64, input string) error {
	normalized := gate.NormalizeChannel(input)

	channels, err := e.channels.FindAll()
	if err != nil {
		e.logger.Error("channel list failed", zap.Error(err))
		return e.sender.Send(chatID, msgRemoveChannelFailed, nil)
	}

	// Match on normalized identity first; raw equality and containment
	// tolerate partial or URL-decorated input.
	var match *models.Channel
	for i := range channels {
		c := &channels[i]
		if gate.NormalizeChannel(c.ChannelID) == normalized || c.ChannelID == input || strings.Contains(c.ChannelID, input) {
			match = c
			break
		}
	}
	if match == nil {
		return e.sender.Send(chatID, fmt.Sprintf("⚠️ Канал %s не найден в списке.", normalized), nil)
	}

	return e.removeChannelByID(ctx, chatID, userID, match.ID)
}

func (e *AdminEngine) removeChannelByID(ctx context.Context, chatID, userID int64, id string) error {
	channel, err := e.channels.FindByID(id)
	if err != nil {
		return e.failStep(ctx, chatID, userID, msgRemoveChannelFailed, err)
	}
	if channel == nil {
		return e.sender.Send(chatID, msgChannelNotFound, nil)
	}

	if err := e.channels.Delete(id); err != nil {
		return e.failStep(ctx, chatID, userID, msgRemoveChannelFailed, err)
	}

	if err := e.sessions.Delete(ctx, userID); err != nil {
		e.logger.Error("session delete failed", zap.Int64("user_id", userID), zap.Error(err))
	}

	e.logger.Info("channel removed", zap.String("channel", channel.ChannelID))
	return e.sender.Send(chatID, fmt.Sprintf("✅ Канал %s успешно удалён из списка проверки.", channel.ChannelID), nil)
}

func (e *AdminEngine) showRemoveChannelList(ctx context.Context, chatID, userID int64, pageIndex int) error {
	channels, err := e.channels.FindAll()
	if err != nil {
		return e.failStep(ctx, chatID, userID, msgChannelListFailed, err)
	}
	if len(channels) == 0 {
		return e.sender.Send(chatID, msgNoChannelsToRemove, nil)
	}

	text, markup, page := removeChannelListMessage(channels, pageIndex)
	if err := e.sender.Send(chatID, text, markup); err != nil {
		return err
	}

	// The list is shown; open the step to typed input as well, so either
	// a button tap or a manually entered name resolves the removal.
	return e.sessions.Update(ctx, userID, func(s *gate.Session) {
		s.Step = gate.StepWaitingInput
		s.Page = page.Index
	})
}

// ── Link steps ────────────────────────────────────────────────────────

func (e *AdminEngine) addLink(ctx context.Context, chatID, userID int64, url string) error {
	existing, err := e.links.FindByURL(url)
	if err != nil {
		e.logger.Error("link lookup failed", zap.Error(err))
		return e.sender.Send(chatID, msgAddLinkFailed, nil)
	}
	if existing != nil {
		return e.sender.Send(chatID, fmt.Sprintf("⚠️ Ссылка уже добавлена:\n%s", url), nil)
	}

	if err := e.links.Create(&models.AccessLink{URL: url, UpdatedBy: userID}); err != nil {
		e.logger.Error("link create failed", zap.Error(err))
		return e.sender.Send(chatID, msgAddLinkFailed, nil)
	}

	e.logger.Info("access link added", zap.String("url", url), zap.Int64("added_by", userID))
	return e.sender.Send(chatID, fmt.Sprintf("✅ Ссылка успешно добавлена:\n%s", url), nil)
}

func (e *AdminEngine) removeLinkByText(ctx context.Context, chatID, userID int64, url string) error {
	links, err := e.links.FindAll()
	if err != nil {
		e.logger.Error("link list failed", zap.Error(err))
		return e.sender.Send(chatID, msgRemoveLinkFailed, nil)
	}

	// Containment in either direction tolerates partial input.
	var match *models.AccessLink
	for i := range links {
		l := &links[i]
		if l.URL == url || strings.Contains(l.URL, url) || strings.Contains(url, l.URL) {
			match = l
			break
		}
	}
	if match == nil {
		return e.sender.Send(chatID, msgLinkNotInList, nil)
	}

	return e.removeLinkByID(ctx, chatID, userID, match.ID)
}

func (e *AdminEngine) removeLinkByID(ctx context.Context, chatID, userID int64, id string) error {
	link, err := e.links.FindByID(id)
	if err != nil {
		return e.failStep(ctx, chatID, userID, msgRemoveLinkFailed, err)
	}
	if link == nil {
		return e.sender.Send(chatID, msgLinkNotFound, nil)
	}

	if err := e.links.Delete(id); err != nil {
		return e.failStep(ctx, chatID, userID, msgRemoveLinkFailed, err)
	}

	if err := e.sessions.Delete(ctx, userID); err != nil {
		e.logger.Error("session delete failed", zap.Int64("user_id", userID), zap.Error(err))
	}

	e.logger.Info("access link removed", zap.String("url", link.URL))
	return e.sender.Send(chatID, msgLinkRemoved, nil)
}

func (e *AdminEngine) showRemoveLinkList(ctx context.Context, chatID, userID int64, pageIndex int) error {
	links, err := e.links.FindAll()
	if err != nil {
		return e.failStep(ctx, chatID, userID, msgLinkListFailed, err)
	}
	if len(links) == 0 {
		return e.sender.Send(chatID, msgNoLinksToRemove, nil)
	}

	text, markup, page := removeLinkListMessage(links, pageIndex)
	if err := e.sender.Send(chatID, text, markup); err != nil {
		return err
	}

	return e.sessions.Update(ctx, userID, func(s *gate.Session) {
		s.Step = gate.StepWaitingInput
		s.Page = page.Index
	})
}

// ── Read-only lists ───────────────────────────────────────────────────

func (e *AdminEngine) renderChannelList(chatID int64, page int) error {
	channels, err := e.channels.FindAll()
	if err != nil {
		e.logger.Error("channel list failed", zap.Error(err))
		return e.sender.Send(chatID, msgChannelListFailed, nil)
	}
	if len(channels) == 0 {
		return e.sender.Send(chatID, msgChannelListEmpty, nil)
	}
	text, markup := channelListMessage(channels, page)
	return e.sender.Send(chatID, text, markup)
}

func (e *AdminEngine) renderLinkList(chatID int64, page int) error {
	links, err := e.links.FindAll()
	if err != nil {
		e.logger.Error("link list failed", zap.Error(err))
		return e.sender.Send(chatID, msgLinkListFailed, nil)
	}
	if len(links) == 0 {
		return e.sender.Send(chatID, msgLinkListEmpty, nil)
	}
	text, markup := linkListMessage(links, page)
	return e.sender.Send(chatID, text, markup)
}

// failStep reports a failed step to the user and releases the session,
// so a downstream error never strands an admin mid-flow.
func (e *AdminEngine) failStep(ctx context.Context, chatID, userID int64, userMsg string, cause error) error {
	e.logger.Error("admin step failed", zap.Int64("user_id", userID), zap.Error(cause))
	if err := e.sessions.Delete(ctx, userID); err != nil {
		e.logger.Error("session delete failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	return e.sender.Send(chatID, userMsg, nil)
}

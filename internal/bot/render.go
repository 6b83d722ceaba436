package bot

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"gatebot/internal/gate"
	"gatebot/internal/models"
)

// User-visible literals. These are part of the bot's protocol: reply
// keyboard labels are matched verbatim against incoming text.
const (
	msgNoPermission = "❌ У вас нет прав для выполнения этой команды."
	msgSessionGone  = "Сессия истекла"
	msgCallbackErr  = "❌ Ошибка"

	btnAddChannel    = "Добавить канал"
	btnListChannels  = "Список каналов"
	btnRemoveChannel = "Удалить канал"
	btnAddLink       = "Добавить ссылку"
	btnListLinks     = "Список ссылок"
	btnRemoveLink    = "Удалить ссылку"
	btnCheckSub      = "Проверить подписку"

	btnPrevPage = "⬅️ Предыдущая"
	btnNextPage = "Следующая ➡️"

	msgAddChannelPrompt = "Введите название канала:\n\nПримеры:\n• @mychannel\n• https://t.me/mychannel"
	msgAddLinkPrompt    = "Введите ссылку доступа для добавления:\n\nПримеры:\n• https://example.com/access\n• https://t.me/+mylink"

	msgChannelListEmpty   = "Список каналов для проверки пуст."
	msgLinkListEmpty      = "Список ссылок доступа пуст."
	msgNoChannelsToRemove = "Нет каналов для удаления"
	msgNoLinksToRemove    = "Нет ссылок для удаления"

	msgChannelNotFound     = "❌ Канал не найден"
	msgLinkNotFound        = "❌ Ссылка не найдена"
	msgLinkNotInList       = "⚠️ Ссылка не найдена в списке."
	msgAddChannelFailed    = "❌ Ошибка при добавлении канала. Проверьте правильность ввода."
	msgRemoveChannelFailed = "❌ Ошибка при удалении канала."
	msgAddLinkFailed       = "❌ Ошибка при добавлении ссылки."
	msgRemoveLinkFailed    = "❌ Ошибка при удалении ссылки"
	msgChannelListFailed   = "❌ Ошибка при загрузке списка каналов"
	msgLinkListFailed      = "❌ Ошибка при загрузке списка ссылок"
	msgLinkRemoved         = "✅ Ссылка успешно удалена"

	msgCheckFailed   = "❌ Произошла ошибка при проверке подписки. Пожалуйста, попробуйте позже."
	msgCheckErrAlert = "Ошибка при проверке подписки"
	msgAccessOpened  = "✅ Доступ открыт!"
	msgNotSubscribed = "❌ Вы подписаны не на все каналы."
	msgNoAccessLink  = "🔗 Ссылка доступа не установлена. Обратитесь к администратору."

	adminHelp = `
<b>Доступные команды:</b>

<b>Управление каналами:</b>
• /admin_add_channel - добавить канал для проверки
• /admin_list_channels - показать все каналы
• /admin_remove_channel - удалить канал из проверки

<b>Управление ссылками доступа:</b>
• /admin_add_link - добавить новую ссылку доступа
• /admin_list_links - показать все ссылки
• /admin_remove_link - удалить ссылку`
)

// adminMenuKeyboard is the persistent reply keyboard shown to admins.
func adminMenuKeyboard() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(
		menu.Row(menu.Text(btnAddChannel), menu.Text(btnListChannels)),
		menu.Row(menu.Text(btnRemoveChannel)),
		menu.Row(menu.Text(btnAddLink), menu.Text(btnListLinks)),
		menu.Row(menu.Text(btnRemoveLink)),
	)
	return menu
}

// checkSubscriptionReplyKeyboard is the single-button keyboard for
// ordinary users.
func checkSubscriptionReplyKeyboard() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(menu.Row(menu.Text(btnCheckSub)))
	return menu
}

// checkSubscriptionInlineKeyboard is the retry button attached to the
// "subscription required" message.
func checkSubscriptionInlineKeyboard() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(menu.Data(btnCheckSub, gate.Callback{Kind: gate.CallbackCheckSubscription}.Encode())))
	return menu
}

// channelListMessage renders one page of the read-only channel list.
func channelListMessage(channels []models.Channel, pageIndex int) (string, *tele.ReplyMarkup) {
	page := gate.Paginate(channels, pageIndex, gate.DefaultPageSize)

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Активные каналы для проверки (стр. %d/%d):</b>\n\n", page.Index+1, page.TotalPages)
	start := page.Index * gate.DefaultPageSize
	for i, channel := range page.Items {
		fmt.Fprintf(&sb, "%d. <code>%s</code>\n", start+i+1, channel.ChannelID)
	}

	return sb.String(), listNavKeyboard(page.HasPrev, page.HasNext,
		gate.Callback{Kind: gate.CallbackListChannelsPage, Page: page.Index - 1},
		gate.Callback{Kind: gate.CallbackListChannelsPage, Page: page.Index + 1})
}

// linkListMessage renders one page of the read-only access link list.
func linkListMessage(links []models.AccessLink, pageIndex int) (string, *tele.ReplyMarkup) {
	page := gate.Paginate(links, pageIndex, gate.DefaultPageSize)

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Активные ссылки доступа (стр. %d/%d):</b>\n\n", page.Index+1, page.TotalPages)
	start := page.Index * gate.DefaultPageSize
	for i, link := range page.Items {
		fmt.Fprintf(&sb, "%d. %s\n", start+i+1, link.URL)
	}

	return sb.String(), listNavKeyboard(page.HasPrev, page.HasNext,
		gate.Callback{Kind: gate.CallbackListLinksPage, Page: page.Index - 1},
		gate.Callback{Kind: gate.CallbackListLinksPage, Page: page.Index + 1})
}

func listNavKeyboard(hasPrev, hasNext bool, prev, next gate.Callback) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	var nav []tele.Btn
	if hasPrev {
		nav = append(nav, menu.Data(btnPrevPage, prev.Encode()))
	}
	if hasNext {
		nav = append(nav, menu.Data(btnNextPage, next.Encode()))
	}
	if len(nav) == 0 {
		return nil
	}
	menu.Inline(menu.Row(nav...))
	return menu
}

// removeChannelListMessage renders the channel selection page for the
// remove flow: numbered rows, one select button per row, nav buttons,
// and a manual-input hint (typed text resolves the same removal).
func removeChannelListMessage(channels []models.Channel, pageIndex int) (string, *tele.ReplyMarkup, gate.Page[models.Channel]) {
	page := gate.Paginate(channels, pageIndex, gate.DefaultPageSize)

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Выберите канал для удаления (стр. %d/%d):</b>\n\n", page.Index+1, page.TotalPages)

	menu := &tele.ReplyMarkup{}
	var rows []tele.Row

	start := page.Index * gate.DefaultPageSize
	for i, channel := range page.Items {
		displayName := strings.TrimPrefix(channel.ChannelID, "@")
		fmt.Fprintf(&sb, "%d. <code>%s</code>\n", start+i+1, displayName)
		rows = append(rows, menu.Row(menu.Data(
			fmt.Sprintf("%d. %s", start+i+1, displayName),
			gate.Callback{Kind: gate.CallbackSelectRemoveChannel, EntityID: channel.ID}.Encode(),
		)))
	}

	var nav []tele.Btn
	if page.HasPrev {
		nav = append(nav, menu.Data(btnPrevPage, gate.Callback{Kind: gate.CallbackPrevPageRemoveChannel}.Encode()))
	}
	if page.HasNext {
		nav = append(nav, menu.Data(btnNextPage, gate.Callback{Kind: gate.CallbackNextPageRemoveChannel}.Encode()))
	}
	if len(nav) > 0 {
		rows = append(rows, menu.Row(nav...))
	}

	sb.WriteString("\nИли введите номер/название канала вручную")

	menu.Inline(rows...)
	return sb.String(), menu, page
}

// removeLinkListMessage renders the link selection page for the remove flow.
func removeLinkListMessage(links []models.AccessLink, pageIndex int) (string, *tele.ReplyMarkup, gate.Page[models.AccessLink]) {
	page := gate.Paginate(links, pageIndex, gate.DefaultPageSize)

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 <b>Выберите ссылку для удаления (стр. %d/%d):</b>\n\n", page.Index+1, page.TotalPages)

	menu := &tele.ReplyMarkup{}
	var rows []tele.Row

	start := page.Index * gate.DefaultPageSize
	for i, link := range page.Items {
		fmt.Fprintf(&sb, "%d. <code>%s</code>\n", start+i+1, link.URL)
		rows = append(rows, menu.Row(menu.Data(
			fmt.Sprintf("%d. %s...", start+i+1, truncate(link.URL, 30)),
			gate.Callback{Kind: gate.CallbackSelectRemoveLink, EntityID: link.ID}.Encode(),
		)))
	}

	var nav []tele.Btn
	if page.HasPrev {
		nav = append(nav, menu.Data(btnPrevPage, gate.Callback{Kind: gate.CallbackPrevPageRemoveLink}.Encode()))
	}
	if page.HasNext {
		nav = append(nav, menu.Data(btnNextPage, gate.Callback{Kind: gate.CallbackNextPageRemoveLink}.Encode()))
	}
	if len(nav) > 0 {
		rows = append(rows, menu.Row(nav...))
	}

	sb.WriteString("\nИли введите номер/ссылку вручную")

	menu.Inline(rows...)
	return sb.String(), menu, page
}

// accessMessage renders the list of access links granted after a
// passed subscription check.
func accessMessage(links []models.AccessLink) string {
	if len(links) == 0 {
		return msgNoAccessLink
	}

	var sb strings.Builder
	sb.WriteString("<b>Теперь вам доступен эксклюзивный доступ к каналам:</b>\n\n")
	for i, link := range links {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, link.URL)
	}
	return sb.String()
}

// subscriptionRequiredMessage lists the channels the user still has to join.
func subscriptionRequiredMessage(failedChannels []string) string {
	var sb strings.Builder
	sb.WriteString("❌ Вы не подписаны на все необходимые каналы.\n\n")
	sb.WriteString("📋 <b>Требуемые каналы:</b>\n")
	for _, channel := range failedChannels {
		fmt.Fprintf(&sb, "• %s\n", formatChannelName(channel))
	}
	sb.WriteString("\n👇 Подпишитесь на все каналы и нажмите кнопку ниже для проверки.")
	return sb.String()
}

// formatChannelName links public channels and marks numeric IDs as code.
func formatChannelName(channel string) string {
	if strings.HasPrefix(channel, "@") {
		return fmt.Sprintf(`<a href="https://t.me/%s">%s</a>`, strings.TrimPrefix(channel, "@"), channel)
	}
	return fmt.Sprintf("<code>Канал %s</code>", channel)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

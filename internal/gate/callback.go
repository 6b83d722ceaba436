package gate

import (
	"strconv"
	"strings"
)

// CallbackKind discriminates the inline-button protocol. The wire
// format is a flat string namespace kept short to fit Telegram's
// 64-byte callback data limit; Encode/Decode are the only places that
// touch the raw strings.
type CallbackKind int

const (
	CallbackUnknown CallbackKind = iota
	CallbackListChannelsPage
	CallbackListLinksPage
	CallbackSelectRemoveChannel
	CallbackSelectRemoveLink
	CallbackNextPageRemoveChannel
	CallbackPrevPageRemoveChannel
	CallbackNextPageRemoveLink
	CallbackPrevPageRemoveLink
	CallbackCheckSubscription
)

const (
	prefixListChannelsPage    = "list_channels_page_"
	prefixListLinksPage       = "list_links_page_"
	prefixSelectRemoveChannel = "select_remove_channel_"
	prefixSelectRemoveLink    = "select_remove_link_"

	tokenNextPageRemoveChannel = "next_page_remove_channel"
	tokenPrevPageRemoveChannel = "prev_page_remove_channel"
	tokenNextPageRemoveLink    = "next_page_remove_link"
	tokenPrevPageRemoveLink    = "prev_page_remove_link"
	tokenCheckSubscription     = "CHECK_SUBSCRIPTION"
)

// Callback is one decoded inline-button interaction. Page is set for
// list pagination kinds, EntityID for select kinds.
type Callback struct {
	Kind     CallbackKind
	Page     int
	EntityID string
}

// Encode renders the callback to its exact wire string.
func (c Callback) Encode() string {
	switch c.Kind {
	case CallbackListChannelsPage:
		return prefixListChannelsPage + strconv.Itoa(c.Page)
	case CallbackListLinksPage:
		return prefixListLinksPage + strconv.Itoa(c.Page)
	case CallbackSelectRemoveChannel:
		return prefixSelectRemoveChannel + c.EntityID
	case CallbackSelectRemoveLink:
		return prefixSelectRemoveLink + c.EntityID
	case CallbackNextPageRemoveChannel:
		return tokenNextPageRemoveChannel
	case CallbackPrevPageRemoveChannel:
		return tokenPrevPageRemoveChannel
	case CallbackNextPageRemoveLink:
		return tokenNextPageRemoveLink
	case CallbackPrevPageRemoveLink:
		return tokenPrevPageRemoveLink
	case CallbackCheckSubscription:
		return tokenCheckSubscription
	}
	return ""
}

// DecodeCallback parses raw callback data. The second return value is
// false for data outside the protocol.
func DecodeCallback(data string) (Callback, bool) {
	switch data {
	case tokenNextPageRemoveChannel:
		return Callback{Kind: CallbackNextPageRemoveChannel}, true
	case tokenPrevPageRemoveChannel:
		return Callback{Kind: CallbackPrevPageRemoveChannel}, true
	case tokenNextPageRemoveLink:
		return Callback{Kind: CallbackNextPageRemoveLink}, true
	case tokenPrevPageRemoveLink:
		return Callback{Kind: CallbackPrevPageRemoveLink}, true
	case tokenCheckSubscription:
		return Callback{Kind: CallbackCheckSubscription}, true
	}

	if page, ok := parsePageSuffix(data, prefixListChannelsPage); ok {
		return Callback{Kind: CallbackListChannelsPage, Page: page}, true
	}
	if page, ok := parsePageSuffix(data, prefixListLinksPage); ok {
		return Callback{Kind: CallbackListLinksPage, Page: page}, true
	}
	if id, ok := strings.CutPrefix(data, prefixSelectRemoveChannel); ok && id != "" {
		return Callback{Kind: CallbackSelectRemoveChannel, EntityID: id}, true
	}
	if id, ok := strings.CutPrefix(data, prefixSelectRemoveLink); ok && id != "" {
		return Callback{Kind: CallbackSelectRemoveLink, EntityID: id}, true
	}

	return Callback{}, false
}

func parsePageSuffix(data, prefix string) (int, bool) {
	suffix, ok := strings.CutPrefix(data, prefix)
	if !ok {
		return 0, false
	}
	page, err := strconv.Atoi(suffix)
	if err != nil || page < 0 {
		return 0, false
	}
	return page, true
}

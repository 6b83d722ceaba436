package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbackWireFormat(t *testing.T) {
	cases := []struct {
		cb   Callback
		wire string
	}{
		{Callback{Kind: CallbackListChannelsPage, Page: 2}, "list_channels_page_2"},
		{Callback{Kind: CallbackListLinksPage, Page: 0}, "list_links_page_0"},
		{Callback{Kind: CallbackSelectRemoveChannel, EntityID: "abc-123"}, "select_remove_channel_abc-123"},
		{Callback{Kind: CallbackSelectRemoveLink, EntityID: "xyz"}, "select_remove_link_xyz"},
		{Callback{Kind: CallbackNextPageRemoveChannel}, "next_page_remove_channel"},
		{Callback{Kind: CallbackPrevPageRemoveChannel}, "prev_page_remove_channel"},
		{Callback{Kind: CallbackNextPageRemoveLink}, "next_page_remove_link"},
		{Callback{Kind: CallbackPrevPageRemoveLink}, "prev_page_remove_link"},
		{Callback{Kind: CallbackCheckSubscription}, "CHECK_SUBSCRIPTION"},
	}

	for _, tc := range cases {
		t.Run(tc.wire, func(t *testing.T) {
			assert.Equal(t, tc.wire, tc.cb.Encode())

			decoded, ok := DecodeCallback(tc.wire)
			require.True(t, ok)
			assert.Equal(t, tc.cb, decoded)
		})
	}
}

func TestDecodeCallbackRejectsGarbage(t *testing.T) {
	invalid := []string{
		"",
		"garbage",
		"list_channels_page_",
		"list_channels_page_-1",
		"list_channels_page_abc",
		"select_remove_channel_",
		"select_remove_link_",
		"check_subscription",
	}
	for _, data := range invalid {
		_, ok := DecodeCallback(data)
		assert.False(t, ok, "data %q", data)
	}
}

func TestEncodeUnknownKind(t *testing.T) {
	assert.Equal(t, "", Callback{Kind: CallbackUnknown}.Encode())
}

package telegram

import (
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// BotAPI is a direct Telegram Bot API client. It exists alongside the
// telebot transport because membership checks need the API's raw error
// description: the subscription classifier matches on that text, and
// telebot wraps it.
type BotAPI struct {
	token  string
	client *resty.Client
}

// NewBotAPI creates a new direct Telegram Bot API client.
func NewBotAPI(token string) *BotAPI {
	return &BotAPI{
		token:  token,
		client: resty.New().SetBaseURL("https://api.telegram.org/bot" + token),
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// APIError is a Bot API call the server rejected. Error returns the
// server's description verbatim.
type APIError struct {
	Method      string
	Description string
}

func (e *APIError) Error() string {
	return e.Description
}

// Call makes a raw API call and returns the result payload.
func (b *BotAPI) Call(method string, params map[string]interface{}) (json.RawMessage, error) {
	resp, err := b.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(params).
		Post("/" + method)
	if err != nil {
		return nil, fmt.Errorf("telegram API call %s failed: %w", method, err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("telegram API call %s: malformed response: %w", method, err)
	}
	if !parsed.OK {
		return nil, &APIError{Method: method, Description: parsed.Description}
	}
	return parsed.Result, nil
}

// GetMe returns the bot's own user ID.
func (b *BotAPI) GetMe() (int64, error) {
	result, err := b.Call("getMe", nil)
	if err != nil {
		return 0, err
	}
	var me struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(result, &me); err != nil {
		return 0, err
	}
	return me.ID, nil
}

// GetChatMember returns the member status of userID in the given chat.
// On API rejection the returned error carries the server's description
// unwrapped.
func (b *BotAPI) GetChatMember(chatID string, userID int64) (string, error) {
	result, err := b.Call("getChatMember", map[string]interface{}{
		"chat_id": chatID,
		"user_id": userID,
	})
	if err != nil {
		return "", err
	}
	var member struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(result, &member); err != nil {
		return "", err
	}
	return member.Status, nil
}

// SendMessage sends a plain text message. Used by background jobs that
// run outside a telebot handler context.
func (b *BotAPI) SendMessage(chatID int64, text string) error {
	_, err := b.Call("sendMessage", map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	return err
}

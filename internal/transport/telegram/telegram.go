// Package telegram adapts the Telegram Bot API to the bot's transport-neutral
// types. Correlation keys have the form "<chat_id>:<message_id>" because
// Telegram message ids are only unique within a chat.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/text/language"

	"github.com/tbourn/go-tutor-bot/internal/domain"
)

// ErrBadKey is returned for chat refs or correlation keys that do not parse.
var ErrBadKey = errors.New("malformed telegram key")

// botAPI is the subset of *tgbotapi.BotAPI used here.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Client sends messages and manages the webhook registration.
type Client struct {
	api botAPI
}

// New authenticates token against the Bot API. Every HTTP call made by the
// client is bounded by timeout.
func New(token string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("BOT_TOKEN is required")
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return &Client{api: api}, nil
}

// FormatKey builds the correlation key of a message.
func FormatKey(chatID int64, messageID int) string {
	return strconv.FormatInt(chatID, 10) + ":" + strconv.Itoa(messageID)
}

// ParseKey splits a correlation key built by FormatKey.
func ParseKey(key string) (chatID int64, messageID int, err error) {
	c, m, ok := strings.Cut(key, ":")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	if chatID, err = strconv.ParseInt(c, 10, 64); err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	if messageID, err = strconv.Atoi(m); err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	return chatID, messageID, nil
}

// ParseChat parses a chat ref.
func ParseChat(chatRef string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(chatRef), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: chat %q", ErrBadKey, chatRef)
	}
	return id, nil
}

// Send delivers text to chatRef and returns the correlation key of the sent
// message. A send that has started is not abandoned on ctx cancellation; the
// HTTP client timeout bounds it.
func (c *Client) Send(ctx context.Context, chatRef, text string, opts domain.SendOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	chatID, err := ParseChat(chatRef)
	if err != nil {
		return "", err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if opts.Markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	if opts.ForceReply {
		msg.ReplyMarkup = tgbotapi.ForceReply{ForceReply: true, Selective: true}
	}
	if opts.ReplyToKey != "" {
		if _, replyID, err := ParseKey(opts.ReplyToKey); err == nil {
			msg.ReplyToMessageID = replyID
			msg.AllowSendingWithoutReply = true
		}
	}

	sent, err := c.api.Send(msg)
	if err != nil {
		return "", err
	}
	if sent.Chat != nil {
		chatID = sent.Chat.ID
	}
	return FormatKey(chatID, sent.MessageID), nil
}

// SetWebhook points Telegram at url. A non-empty secretToken is echoed back
// by Telegram in the X-Telegram-Bot-Api-Secret-Token header.
func (c *Client) SetWebhook(url, secretToken string) error {
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", secretToken)
	_, err := c.api.MakeRequest("setWebhook", params)
	return err
}

// DeleteWebhook removes any webhook so getUpdates polling is allowed.
func (c *Client) DeleteWebhook() error {
	_, err := c.api.MakeRequest("deleteWebhook", tgbotapi.Params{})
	return err
}

// NewInbound converts an update into an Inbound. Only text messages are
// accepted; everything else reports false.
func NewInbound(u tgbotapi.Update) (domain.Inbound, bool) {
	msg := u.Message
	if msg == nil || msg.Chat == nil || strings.TrimSpace(msg.Text) == "" {
		return domain.Inbound{}, false
	}
	in := domain.Inbound{
		UpdateID:  int64(u.UpdateID),
		MessageID: FormatKey(msg.Chat.ID, msg.MessageID),
		ChatRef:   strconv.FormatInt(msg.Chat.ID, 10),
		Text:      msg.Text,
		Sender:    requester(msg.From),
	}
	if msg.IsCommand() {
		in.Command = strings.ToLower(msg.Command())
	}
	if msg.ReplyToMessage != nil {
		in.ReplyToKey = FormatKey(msg.Chat.ID, msg.ReplyToMessage.MessageID)
	}
	return in, true
}

func requester(u *tgbotapi.User) domain.Requester {
	if u == nil {
		return domain.Requester{}
	}
	return domain.Requester{
		UserID:       u.ID,
		Username:     u.UserName,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		LanguageCode: normalizeLocale(u.LanguageCode),
	}
}

func normalizeLocale(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	return tag.String()
}

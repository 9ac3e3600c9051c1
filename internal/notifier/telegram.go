package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTelegramURL is the public Bot API host.
const DefaultTelegramURL = "https://api.telegram.org"

// Notifier delivers a text message to a recipient.
type Notifier interface {
	Notify(ctx context.Context, recipient int64, text string) error
}

// Reply is a chat response with an optional reply keyboard.
type Reply struct {
	Text           string
	Keyboard       [][]string
	RemoveKeyboard bool
}

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	BaseURL  string
	Client   *http.Client
	// Attempts is the total number of tries per message, Backoff the fixed pause between them.
	Attempts int
	Backoff  time.Duration
}

// NewTelegramNotifier creates a notifier. A non-empty proxyURL routes all Bot API calls through it.
func NewTelegramNotifier(botToken, proxyURL string) *TelegramNotifier {
	return &TelegramNotifier{
		BotToken: botToken,
		BaseURL:  DefaultTelegramURL,
		Client:   &http.Client{Timeout: 30 * time.Second, Transport: proxiedTransport(proxyURL)},
		Attempts: 3,
		Backoff:  2 * time.Second,
	}
}

func proxiedTransport(proxyURL string) *http.Transport {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL == "" {
		return tr
	}
	u, err := url.Parse(proxyURL)
	if err != nil {
		log.Printf("[WARN] ignoring invalid proxy %q: %v", proxyURL, err)
		return tr
	}
	tr.Proxy = http.ProxyURL(u)
	return tr
}

func (t *TelegramNotifier) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(t.BaseURL, "/"), t.BotToken, method)
}

// APIError is a non-200 answer from the Bot API.
type APIError struct {
	Status      int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram API status %d: %s", e.Status, e.Description)
}

type keyButton struct {
	Text string `json:"text"`
}

type replyMarkup struct {
	Keyboard        [][]keyButton `json:"keyboard,omitempty"`
	ResizeKeyboard  bool          `json:"resize_keyboard,omitempty"`
	OneTimeKeyboard bool          `json:"one_time_keyboard,omitempty"`
	RemoveKeyboard  bool          `json:"remove_keyboard,omitempty"`
}

type sendMessageRequest struct {
	ChatID      int64        `json:"chat_id"`
	Text        string       `json:"text"`
	ParseMode   string       `json:"parse_mode"`
	ReplyMarkup *replyMarkup `json:"reply_markup,omitempty"`
}

func (r Reply) markup() *replyMarkup {
	switch {
	case len(r.Keyboard) > 0:
		rows := make([][]keyButton, len(r.Keyboard))
		for i, row := range r.Keyboard {
			for _, label := range row {
				rows[i] = append(rows[i], keyButton{Text: label})
			}
		}
		return &replyMarkup{Keyboard: rows, ResizeKeyboard: true, OneTimeKeyboard: true}
	case r.RemoveKeyboard:
		return &replyMarkup{RemoveKeyboard: true}
	}
	return nil
}

// Notify implements Notifier with the retry policy of SendWithRetry.
func (t *TelegramNotifier) Notify(ctx context.Context, recipient int64, text string) error {
	return t.SendWithRetry(ctx, recipient, text)
}

// Send sends one HTML message to chatID.
func (t *TelegramNotifier) Send(ctx context.Context, chatID int64, text string) error {
	return t.SendReply(ctx, chatID, Reply{Text: text})
}

// SendReply sends a message with its keyboard markup.
func (t *TelegramNotifier) SendReply(ctx context.Context, chatID int64, r Reply) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:      chatID,
		Text:        r.Text,
		ParseMode:   "HTML",
		ReplyMarkup: r.markup(),
	})
	if err != nil {
		return fmt.Errorf("encode sendMessage: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sendMessage: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("sendMessage to %d: %w", chatID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode}
	var answer struct {
		Description string `json:"description"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(raw, &answer) == nil && answer.Description != "" {
		apiErr.Description = answer.Description
	} else {
		apiErr.Description = strings.TrimSpace(string(raw))
	}
	return apiErr
}

// SendWithRetry sends a message, retrying with a fixed backoff. Cancelling ctx aborts the wait.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, chatID int64, text string) error {
	attempts := t.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		err := t.Send(ctx, chatID, text)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		log.Printf("[WARN] Telegram send to %d failed (attempt %d/%d): %v, retrying in %v", chatID, i+1, attempts, err, t.Backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.Backoff):
		}
	}
	return fmt.Errorf("all %d attempts exhausted: %w", attempts, lastErr)
}

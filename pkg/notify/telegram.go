package notify

import (
	"context"
	"fmt"
	"strings"

	"jpltour/pkg/config"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// telegramMaxLen is the Bot API limit for one message.
const telegramMaxLen = 4096

// TelegramMessage represents a message to be sent via Telegram
type TelegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// TelegramResponse represents Telegram API response
type TelegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	ErrorCode   int    `json:"error_code,omitempty"`
}

// TelegramSender sends the result as Markdown text, split into several
// messages when it is too long.
type TelegramSender struct {
	client  *resty.Client
	apiBase string
	token   string
	chatID  string
	limiter *rate.Limiter
}

func NewTelegramSender(client *resty.Client, cfg *config.TelegramConfig, chatID string) *TelegramSender {
	perSecond := cfg.MessagesPerSecond
	if perSecond <= 0 {
		perSecond = 1
	}
	apiBase := strings.TrimSuffix(cfg.APIBase, "/")
	if apiBase == "" {
		apiBase = "https://api.telegram.org"
	}
	return &TelegramSender{
		client:  client,
		apiBase: apiBase,
		token:   cfg.BotToken,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

func (t *TelegramSender) Name() string { return "telegram" }

func (t *TelegramSender) Send(ctx context.Context, res *RunResult) error {
	chunks := splitMessage(FormatMarkdown(res), telegramMaxLen)
	parseMode := "Markdown"
	if len(chunks) > 1 {
		// a split can cut a code block in half, which the Markdown parser rejects
		parseMode = ""
	}
	for _, chunk := range chunks {
		if err := t.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := t.sendMessage(ctx, chunk, parseMode); err != nil {
			return err
		}
	}
	return nil
}

func (t *TelegramSender) sendMessage(ctx context.Context, text, parseMode string) error {
	var body TelegramResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(TelegramMessage{ChatID: t.chatID, Text: text, ParseMode: parseMode}).
		SetResult(&body).
		SetError(&body).
		Post(fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token))
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}

	if !body.OK {
		if resp.IsSuccess() || body.ErrorCode != 0 {
			return &APIError{Transport: t.Name(), Code: body.ErrorCode, Message: body.Description}
		}
		return &HTTPError{Transport: t.Name(), StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}

// FormatMarkdown renders the result as Markdown shared by Telegram and WeChat.
// Content goes into code blocks so tables keep their alignment.
func FormatMarkdown(res *RunResult) string {
	var b strings.Builder
	for _, n := range res.Notifications {
		fmt.Fprintf(&b, "*%s*\n```\n%s\n```\n", n.Title, n.Content)
	}
	if len(res.Warnings) > 0 {
		b.WriteString("*⚠️ Warnings*\n")
		for _, w := range res.Warnings {
			kind, msg := SplitEntry(w)
			fmt.Fprintf(&b, "- %s: %s\n", kind, msg)
		}
	}
	if len(res.Errors) > 0 {
		b.WriteString("*❌ Errors*\n")
		for _, e := range res.Errors {
			kind, msg := SplitEntry(e)
			fmt.Fprintf(&b, "- %s: %s\n", kind, msg)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// splitMessage cuts text into chunks of at most limit bytes, preferring line
// boundaries.
func splitMessage(text string, limit int) []string {
	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

package notify

import (
	"context"
	"strings"

	"jpltour/pkg/logger"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Embed sidebar colors.
const (
	ColorRed    = 0xD50F25
	ColorYellow = 0xEEB211
	ColorGreen  = 0x009925
	ColorBlue   = 0x3369E8
	ColorGray   = 0x808080
)

// Discord limits an embed field value to 1024 characters.
const discordFieldLimit = 1024

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordEmbed struct {
	Title  string         `json:"title,omitempty"`
	Color  int            `json:"color"`
	Fields []discordField `json:"fields"`
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

// DiscordSender posts one embed per section (notifications, warnings, errors)
// to a Discord webhook.
type DiscordSender struct {
	client     *resty.Client
	webhookURL string
}

func NewDiscordSender(client *resty.Client, webhookURL string) *DiscordSender {
	return &DiscordSender{client: client, webhookURL: webhookURL}
}

func (d *DiscordSender) Name() string { return "discord" }

func (d *DiscordSender) Send(ctx context.Context, res *RunResult) error {
	payload := buildDiscordPayload(res)

	resp, err := d.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(d.webhookURL)
	if err != nil {
		return err
	}

	if !resp.IsSuccess() {
		logger.FromContext(ctx).Error("There was a problem posting the message",
			zap.Int("status", resp.StatusCode()),
			zap.Any("request", payload),
			zap.String("response", resp.String()))
		return &HTTPError{Transport: d.Name(), StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}

func buildDiscordPayload(res *RunResult) discordPayload {
	var embeds []discordEmbed

	if len(res.Notifications) > 0 {
		color := ColorGray
		fields := make([]discordField, 0, len(res.Notifications))
		for _, n := range res.Notifications {
			// the last matching notification decides the color
			if strings.Contains(n.Content, "available tour") || n.Title == "Tour details" {
				color = ColorGreen
			} else if strings.Contains(n.Content, "(empty)") {
				color = ColorBlue
			}
			fields = append(fields, newDiscordField(n.Title, n.Content))
		}
		embeds = append(embeds, discordEmbed{Color: color, Fields: fields})
	}

	if f := entryFields(res.Warnings); len(f) > 0 {
		embeds = append(embeds, discordEmbed{Color: ColorYellow, Fields: f})
	}
	if f := entryFields(res.Errors); len(f) > 0 {
		embeds = append(embeds, discordEmbed{Color: ColorRed, Fields: f})
	}

	return discordPayload{Embeds: embeds}
}

func entryFields(entries []string) []discordField {
	fields := make([]discordField, 0, len(entries))
	for _, e := range entries {
		kind, msg := SplitEntry(e)
		fields = append(fields, newDiscordField(kind, msg))
	}
	return fields
}

// newDiscordField fills empty names/values, which Discord rejects.
func newDiscordField(name, value string) discordField {
	if name == "" {
		name = "\u200b"
	}
	if value == "" {
		value = "\u200b"
	}
	if len(value) > discordFieldLimit {
		value = value[:discordFieldLimit-3] + "..."
	}
	return discordField{Name: name, Value: value}
}

package notify

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"jpltour/pkg/config"
	"jpltour/pkg/logger"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Sender delivers a run result somewhere.
type Sender interface {
	Name() string
	Send(ctx context.Context, res *RunResult) error
}

// NewSender picks a transport from cfg.Destination:
//
//	https://discord.com/api/webhooks/...        Discord embeds
//	https://qyapi.weixin.qq.com/cgi-bin/webhook WeChat Work markdown
//	telegram:<chat_id>                          Telegram bot message
//	(empty)                                     log only
func NewSender(cfg *config.NotifyConfig) (Sender, error) {
	dest := strings.TrimSpace(cfg.Destination)
	if dest == "" {
		return LogSender{}, nil
	}

	if chatID, ok := strings.CutPrefix(dest, "telegram:"); ok {
		if cfg.Telegram == nil || cfg.Telegram.BotToken == "" || chatID == "" {
			return nil, fmt.Errorf("%w: telegram needs a bot token and a chat id", ErrMissingCredentials)
		}
		return NewTelegramSender(newClient(cfg), cfg.Telegram, chatID), nil
	}

	u, err := url.Parse(dest)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDestination, dest)
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case host == "discord.com" || host == "discordapp.com" || strings.HasSuffix(host, ".discord.com"):
		return NewDiscordSender(newClient(cfg), dest), nil
	case host == "qyapi.weixin.qq.com":
		var mentions []string
		if cfg.WeChat != nil {
			mentions = cfg.WeChat.MentionUsers
		}
		return NewWeChatSender(newClient(cfg), dest, mentions), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDestination, dest)
	}
}

// Deliver sends res through s unless there is nothing to report.
func Deliver(ctx context.Context, s Sender, res *RunResult) error {
	if res == nil || res.Empty() {
		logger.FromContext(ctx).Debug("Nothing to notify")
		return nil
	}

	if err := s.Send(ctx, res); err != nil {
		logger.FromContext(ctx).Error("Failed to deliver notification",
			zap.String("transport", s.Name()),
			zap.Error(err))
		return err
	}

	logger.FromContext(ctx).Info("Notification delivered",
		zap.String("transport", s.Name()),
		zap.Int("notifications", len(res.Notifications)),
		zap.Int("warnings", len(res.Warnings)),
		zap.Int("errors", len(res.Errors)))
	return nil
}

// newClient builds a resty client that retries transport failures and 5xx/429 answers.
func newClient(cfg *config.NotifyConfig) *resty.Client {
	return resty.New().
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(time.Duration(cfg.RetryDelay)*time.Second).
		SetHeader("Content-Type", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == 429 || r.StatusCode() >= 500
		})
}

// LogSender writes the result to the log instead of a remote service.
type LogSender struct{}

func (LogSender) Name() string { return "log" }

func (LogSender) Send(ctx context.Context, res *RunResult) error {
	log := logger.FromContext(ctx)
	for _, n := range res.Notifications {
		log.Info(n.String())
	}
	for _, w := range res.Warnings {
		log.Warn(w)
	}
	for _, e := range res.Errors {
		log.Error(e)
	}
	return nil
}

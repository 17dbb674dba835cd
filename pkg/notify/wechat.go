package notify

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// 企业微信 webhook message types
const (
	wechatMsgTypeMarkdown = "markdown"
	wechatMsgTypeText     = "text"
)

type wechatMarkdown struct {
	Content string `json:"content"`
}

type wechatText struct {
	Content       string   `json:"content"`
	MentionedList []string `json:"mentioned_list,omitempty"`
}

type wechatMessage struct {
	MsgType  string          `json:"msgtype"`
	Markdown *wechatMarkdown `json:"markdown,omitempty"`
	Text     *wechatText     `json:"text,omitempty"`
}

type wechatResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// WeChatSender posts the result to a WeChat Work group robot. Mentions need a
// separate text message because markdown messages cannot @ users.
type WeChatSender struct {
	client       *resty.Client
	webhookURL   string
	mentionUsers []string
}

func NewWeChatSender(client *resty.Client, webhookURL string, mentionUsers []string) *WeChatSender {
	return &WeChatSender{client: client, webhookURL: webhookURL, mentionUsers: mentionUsers}
}

func (w *WeChatSender) Name() string { return "wechat" }

func (w *WeChatSender) Send(ctx context.Context, res *RunResult) error {
	msg := wechatMessage{
		MsgType:  wechatMsgTypeMarkdown,
		Markdown: &wechatMarkdown{Content: FormatMarkdown(res)},
	}
	if err := w.post(ctx, msg); err != nil {
		return err
	}

	if len(w.mentionUsers) == 0 {
		return nil
	}
	return w.post(ctx, wechatMessage{
		MsgType: wechatMsgTypeText,
		Text:    &wechatText{Content: fmt.Sprintf("JPL tours: %s", res.Outcome()), MentionedList: w.mentionUsers},
	})
}

func (w *WeChatSender) post(ctx context.Context, msg wechatMessage) error {
	var body wechatResponse
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(msg).
		SetResult(&body).
		Post(w.webhookURL)
	if err != nil {
		return fmt.Errorf("failed to send wechat message: %w", err)
	}
	if !resp.IsSuccess() {
		return &HTTPError{Transport: w.Name(), StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	if body.ErrCode != 0 {
		return &APIError{Transport: w.Name(), Code: body.ErrCode, Message: body.ErrMsg}
	}
	return nil
}

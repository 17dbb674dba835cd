// Package notify holds the notification model produced by a run and the
// transports that deliver it.
package notify

import (
	"strings"
)

// Notification reports one observed change. It has no setters: build a new
// one instead of editing it.
type Notification struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// New creates a Notification.
func New(title, content string) Notification {
	return Notification{Title: title, Content: content}
}

// String renders the title followed by the tab-indented content.
func (n Notification) String() string {
	lines := strings.Split(n.Content, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = "\t" + line
		}
	}
	return n.Title + "\n" + strings.Join(lines, "\n")
}

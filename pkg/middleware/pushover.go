package middleware

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Pushover sends best-effort operator alerts for conditions a running
// replay process can't recover from on its own, such as the database
// writer going permanently disabled.
type Pushover struct {
	user   string
	token  string
	device string
}

func NewPushover(user, token, device string) *Pushover {
	return &Pushover{user: user, token: token, device: device}
}

// Notify posts title/message to the configured Pushover user. Errors are
// returned, not retried; callers typically fire this from a goroutine and
// log the error rather than let a notification failure affect the feed.
func (p *Pushover) Notify(ctx context.Context, title, message string) error {
	data := url.Values{}
	data.Set("token", p.token)
	data.Set("user", p.user)
	data.Set("device", p.device)
	data.Set("title", title)
	data.Set("message", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.pushover.net/1/messages.json", strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("pushover post failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("pushover error: %s", body)
	}
	return nil
}

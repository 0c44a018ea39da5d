package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"banshee/internal/config"
)

const userAgent = "Banshee-Go/0.1.0"

// Service defines the notification surface exposed to the workflow manager.
type Service interface {
	NotifyTransactionCompleted(ctx context.Context, name, category string, duration time.Duration) error
	NotifyTransactionFailed(ctx context.Context, name, category string, err error) error
	NotifyQueueDrained(ctx context.Context, completed, failed int, duration time.Duration) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := cfg.NotifyTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		transactions: cfg.Notifications.Transactions,
		errors:       cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	transactions bool
	errors       bool
}

func (n *ntfyService) NotifyTransactionCompleted(ctx context.Context, name, category string, duration time.Duration) error {
	if !n.transactions {
		return nil
	}
	data := payload{
		title:   "Banshee - " + categoryLabel(category) + " Complete",
		message: fmt.Sprintf("✅ %s finished in %s", strings.TrimSpace(name), formatDuration(duration)),
		tags:    []string{"banshee", normalizeTag(category), "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyTransactionFailed(ctx context.Context, name, category string, err error) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ ")
	builder.WriteString(strings.TrimSpace(name))
	builder.WriteString(" failed: ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	data := payload{
		title:    "Banshee - " + categoryLabel(category) + " Failed",
		message:  builder.String(),
		tags:     []string{"banshee", normalizeTag(category), "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQueueDrained(ctx context.Context, completed, failed int, duration time.Duration) error {
	if !n.transactions {
		return nil
	}
	durationText := formatDuration(duration)
	var title, message string
	if failed == 0 {
		title = "Banshee - All Done"
		message = fmt.Sprintf("Background work finished: %d transactions in %s", completed, durationText)
	} else {
		title = "Banshee - All Done (with errors)"
		message = fmt.Sprintf("Background work finished: %d succeeded, %d failed in %s", completed, failed, durationText)
	}
	data := payload{
		title:   title,
		message: message,
		tags:    []string{"banshee", "queue", "drained"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Banshee - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"banshee", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func categoryLabel(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return "Transaction"
	}
	return strings.ToUpper(category[:1]) + category[1:]
}

func normalizeTag(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return "transaction"
	}
	return category
}

func formatDuration(duration time.Duration) string {
	duration = duration.Round(time.Second)
	if duration <= 0 {
		return "0s"
	}
	return duration.String()
}

type noopService struct{}

func (noopService) NotifyTransactionCompleted(context.Context, string, string, time.Duration) error {
	return nil
}
func (noopService) NotifyTransactionFailed(context.Context, string, string, error) error { return nil }
func (noopService) NotifyQueueDrained(context.Context, int, int, time.Duration) error    { return nil }
func (noopService) TestNotification(context.Context) error                               { return nil }

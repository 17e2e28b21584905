package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"samplesort/internal/config"
)

const userAgent = "samplesort/0.1.0"

// ErrCircuitOpen is returned while the breaker rejects deliveries.
var ErrCircuitOpen = errors.New("notification circuit open")

// Event enumerates the notifications the grouping service can emit.
type Event string

const (
	EventSweepCompleted   Event = "sweep_completed"
	EventResequenceFailed Event = "resequence_failed"
	EventAllocationFailed Event = "allocation_failed"
	EventError            Event = "error"
	EventTest             Event = "test"
)

// Payload carries event-specific values.
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
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

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		breaker:  newBreaker(),
		sweeps:   cfg.Notifications.Sweeps,
		errors:   cfg.Notifications.Errors,
	}
}

func newBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ntfy",
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	sweeps   bool
	errors   bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil {
		return nil
	}
	msg, ok := n.render(event, payload)
	if !ok {
		return nil
	}
	_, err := n.breaker.Execute(func() (interface{}, error) {
		return nil, n.send(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

func (n *ntfyService) render(event Event, payload Payload) (message, bool) {
	switch event {
	case EventSweepCompleted:
		if !n.sweeps {
			return message{}, false
		}
		grouped := payloadInt(payload, "grouped")
		if grouped == 0 {
			return message{}, false
		}
		strategy := payloadString(payload, "strategy")
		body := fmt.Sprintf("🧪 %s sweep grouped %d item%s in %d round%s",
			strategy, grouped, plural(grouped), payloadInt(payload, "rounds"), plural(payloadInt(payload, "rounds")))
		if remaining := payloadInt(payload, "remaining"); remaining > 0 {
			body += fmt.Sprintf("\n%d still ungrouped", remaining)
		}
		return message{
			title: "samplesort - Sweep Complete",
			body:  body,
			tags:  []string{"samplesort", "sweep", strategy},
		}, true
	case EventResequenceFailed:
		if !n.errors {
			return message{}, false
		}
		return message{
			title:    "samplesort - Names Out Of Sync",
			body:     fmt.Sprintf("⚠️ Group %s: %d name(s) not stored", payloadString(payload, "group"), payloadInt(payload, "failures")),
			tags:     []string{"samplesort", "naming", "warning"},
			priority: "high",
		}, true
	case EventAllocationFailed:
		if !n.errors {
			return message{}, false
		}
		return message{
			title:    "samplesort - Naming Failed",
			body:     fmt.Sprintf("❌ No free name for group %s: %s", payloadString(payload, "group"), payloadString(payload, "error")),
			tags:     []string{"samplesort", "naming", "alert"},
			priority: "high",
		}, true
	case EventError:
		if !n.errors {
			return message{}, false
		}
		var builder strings.Builder
		builder.WriteString("❌ Error")
		if label := payloadString(payload, "context"); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if text := payloadString(payload, "error"); text != "" {
			builder.WriteString(text)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "samplesort - Error",
			body:     builder.String(),
			tags:     []string{"samplesort", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "samplesort - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"samplesort", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
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

func payloadString(p Payload, key string) string {
	if p == nil {
		return ""
	}
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func payloadInt(p Payload, key string) int {
	if p == nil {
		return 0
	}
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }

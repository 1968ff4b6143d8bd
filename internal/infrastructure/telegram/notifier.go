package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"NewsBalancer/internal/domain"
	"NewsBalancer/internal/ports"
)

const defaultBaseURL = "https://api.telegram.org"

// Notifier sends batch reports to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  defaultBaseURL,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// PublishReport posts a Markdown summary of the batch to Telegram.
func (n *Notifier) PublishReport(ctx context.Context, report domain.BatchReport) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimSuffix(n.baseURL, "/"), n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", FormatReport(report))
	form.Set("parse_mode", "Markdown")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

// FormatReport renders the batch counters as a short Markdown message.
func FormatReport(report domain.BatchReport) string {
	var b strings.Builder

	title := "*Article batch complete*"
	if report.Interrupted {
		title = "*Article batch interrupted*"
	}
	b.WriteString(title + "\n")
	fmt.Fprintf(&b, "Run: `%s`\n", report.RunID)
	fmt.Fprintf(&b, "Processed: %d of %d\n", report.Processed, report.Total)
	fmt.Fprintf(&b, "Relevant: %d\n", report.Relevant)
	fmt.Fprintf(&b, "Not relevant: %d\n", report.NotRelevant)
	fmt.Fprintf(&b, "Errors: %d\n", report.Errored)
	if !report.Started.IsZero() && !report.Finished.IsZero() {
		fmt.Fprintf(&b, "Duration: %s\n", report.Finished.Sub(report.Started).Round(time.Second))
	}

	return b.String()
}

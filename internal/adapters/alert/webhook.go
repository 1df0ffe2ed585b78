package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// WebhookAlerter posts processing failures to an operational webhook (Slack
// style incoming webhook). Delivery is best effort; an unreachable channel
// must never take down ingestion.
type WebhookAlerter struct {
	url        string
	httpClient *http.Client
	log        *slog.Logger
}

func NewWebhookAlerter(url string, log *slog.Logger) *WebhookAlerter {
	return &WebhookAlerter{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.With("component", "Alerter"),
	}
}

// Alert sends the subject, error and original payload for manual triage.
// With no URL configured it degrades to an error log.
func (a *WebhookAlerter) Alert(ctx context.Context, subject string, err error, payload any) {
	if a.url == "" {
		a.log.Error("processing failure", "subject", subject, "err", err)
		return
	}

	body, marshalErr := json.Marshal(map[string]any{
		"text":    subject,
		"error":   err.Error(),
		"payload": payload,
	})
	if marshalErr != nil {
		a.log.Error("alert payload marshal failed", "err", marshalErr)
		return
	}
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if reqErr != nil {
		a.log.Error("alert request build failed", "err", reqErr)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, postErr := a.httpClient.Do(req)
	if postErr != nil {
		a.log.Error("alert delivery failed", "err", postErr)
		return
	}
	resp.Body.Close()
}

// Package notify sends fire-and-forget HTTP notifications for annotation
// events. The primary use case is ntfy.sh, but any HTTP webhook works.
package notify

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Kind classifies a notification-worthy event.
type Kind int

const (
	// Saved is emitted after annotations were written to the repository.
	Saved Kind = iota
	// SaveFailed is emitted when writing annotations failed.
	SaveFailed
)

// Event is a single notification-worthy occurrence.
type Event struct {
	Kind    Kind
	Message string
}

// Notifier posts plain-text HTTP notifications for selected events.
type Notifier struct {
	url     string
	title   string
	onSave  bool
	onError bool
	client  *http.Client
	log     *zap.Logger
}

// New creates a Notifier. projectName is used as the X-Title header; if empty,
// "Whisker" is used instead. A nil logger discards post failures.
func New(notifURL, projectName string, onSave, onError bool, log *zap.Logger) *Notifier {
	title := "Whisker"
	if projectName != "" {
		title = projectName
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{
		url:     notifURL,
		title:   title,
		onSave:  onSave,
		onError: onError,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// Hook fires an asynchronous POST when the event matches the configured
// notification flags. A nil Notifier ignores every event.
func (n *Notifier) Hook(e Event) {
	if n == nil || n.url == "" {
		return
	}
	switch e.Kind {
	case Saved:
		if n.onSave {
			go n.post(e.Message)
		}
	case SaveFailed:
		if n.onError {
			go n.post(e.Message)
		}
	}
}

// post sends a plain-text POST to the configured URL. Failures are logged at
// debug level and never reach the caller.
func (n *Notifier) post(message string) {
	req, err := http.NewRequest(http.MethodPost, n.url, strings.NewReader(message))
	if err != nil {
		n.log.Debug("notification request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("X-Title", n.title)
	resp, err := n.client.Do(req)
	if err != nil {
		n.log.Debug("notification post", zap.String("url", n.url), zap.Error(err))
		return
	}
	resp.Body.Close()
}

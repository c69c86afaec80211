// Package notify delivers outbound chat-bot alerts. Messages accumulate in a
// shared buffer and are sent in length-aware batches; delivery is best-effort
// with a bounded retry loop that honors server-specified rate-limit waits.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"csv-stock-merge/internal/config"
)

const (
	// requestTimeout bounds every sendMessage call.
	requestTimeout = 10 * time.Second
	// maxSendAttempts bounds the retry loop of one batch.
	maxSendAttempts = 3
	// fallbackRetryDelay is used when a rate-limit response carries no
	// retry_after hint.
	fallbackRetryDelay = 5 * time.Second
)

// apiResponse is the subset of the bot API response the client inspects.
type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// Messenger is the process-wide outbound message queue. All methods are safe
// for concurrent use; the lock covers the check-then-act on buffer length so
// concurrent appends cannot jointly overflow the limit.
type Messenger struct {
	token     string
	chatID    string
	threadID  string
	parseMode ParseMode
	maxLength int
	selector  string
	apiURL    string
	client    *http.Client
	log       *zap.SugaredLogger

	mu       sync.Mutex
	messages []string
}

// New builds a messenger from the notification configuration. The chat ID may
// be a "chat/thread" composite.
func New(cfg config.TelegramConfig, log *zap.SugaredLogger) *Messenger {
	chatID := cfg.ChatID
	threadID := ""
	if parts := strings.SplitN(cfg.ChatID, "/", 2); len(parts) == 2 {
		chatID, threadID = parts[0], parts[1]
	}

	return &Messenger{
		token:     cfg.Token,
		chatID:    chatID,
		threadID:  threadID,
		parseMode: ParseMode(cfg.ParseMode),
		maxLength: cfg.MaxMsgLength,
		selector:  fmt.Sprintf("\n\n%s\n\n", strings.Repeat("─", cfg.LineHeight)),
		apiURL:    cfg.APIURL,
		client:    &http.Client{Timeout: requestTimeout},
		log:       log,
	}
}

// AddMessage appends a message to the buffer. If the joined buffer would
// exceed the maximum message length, the pending batch is sent first and the
// new message starts the next one. Delivery failures are logged, never
// returned: notification loss must not fail the pipeline.
func (m *Messenger) AddMessage(ctx context.Context, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	formatted := FormatMessage(message, m.parseMode)
	m.log.Debugf("Adding new message of length %d.", len(formatted))

	combined := strings.Join(append(append([]string{}, m.messages...), formatted), m.selector)
	if len(combined) > m.maxLength && len(m.messages) > 0 {
		m.sendLocked(ctx, strings.Join(m.messages, m.selector))
		m.messages = m.messages[:0]
	}
	m.messages = append(m.messages, formatted)
}

// Flush sends everything pending in the buffer.
func (m *Messenger) Flush(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.messages) == 0 {
		return
	}
	m.sendLocked(ctx, strings.Join(m.messages, m.selector))
	m.messages = m.messages[:0]
}

// sendLocked delivers one batch with bounded retries. The caller holds the
// lock. A rate-limited attempt waits the server-specified duration before
// retrying; any other failure abandons the batch.
func (m *Messenger) sendLocked(ctx context.Context, text string) {
	if text == "" {
		m.log.Info("Buffer is empty, nothing to send.")
		return
	}

	for attempt := 1; attempt <= maxSendAttempts; attempt++ {
		resp, err := m.post(ctx, text)
		if err != nil {
			m.log.Errorf("Failed to send message: %v", err)
			return
		}
		if resp.OK {
			return
		}
		if resp.ErrorCode == http.StatusTooManyRequests {
			delay := fallbackRetryDelay
			if resp.Parameters.RetryAfter > 0 {
				delay = time.Duration(resp.Parameters.RetryAfter) * time.Second
			}
			m.log.Warnf("Message failed with error code %d. Retrying after %s.", resp.ErrorCode, delay)
			select {
			case <-ctx.Done():
				m.log.Errorf("Send cancelled while waiting to retry: %v", ctx.Err())
				return
			case <-time.After(delay):
			}
			continue
		}
		m.log.Errorf("Failed to send message: %s (error code %d)", resp.Description, resp.ErrorCode)
		return
	}
	m.log.Error("Failed to send buffer after retries.")
}

func (m *Messenger) post(ctx context.Context, text string) (*apiResponse, error) {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", m.apiURL, m.token)

	form := url.Values{}
	form.Set("chat_id", m.chatID)
	form.Set("text", text)
	if m.parseMode != ParseModeNone {
		form.Set("parse_mode", string(m.parseMode))
	}
	if m.threadID != "" {
		form.Set("message_thread_id", m.threadID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	var resp apiResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}

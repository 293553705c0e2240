package remote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/OBress/CanvAI/internal/infrastructure/config"
	"github.com/OBress/CanvAI/internal/infrastructure/logging"
	"github.com/OBress/CanvAI/internal/infrastructure/monitoring"
	"github.com/OBress/CanvAI/internal/infrastructure/resilience"
	"github.com/OBress/CanvAI/internal/shared/types"
)

// Client talks to the CanvAI backend.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// New creates a backend client. RetryMax defaults to zero in config: the
// sync layer treats every failure as final and keeps optimistic local state.
func New(cfg config.BackendConfig, log *logging.Logger, metrics *monitoring.Metrics) *Client {
	if log == nil {
		log = logging.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil

	httpClient := resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "CanvAI-Sync/1.0")
	httpClient.JSONMarshal = sonic.Marshal
	httpClient.JSONUnmarshal = sonic.Unmarshal

	breaker := resilience.New("backend", resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 8
		},
	})

	return &Client{
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Inf, 0),
		breaker: breaker,
		log:     log,
		metrics: metrics,
	}
}

// FetchSessions lists every session stored on the backend.
func (c *Client) FetchSessions(ctx context.Context) ([]types.Session, error) {
	var envelope sessionsEnvelope
	err := c.call(ctx, "fetch_sessions", func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetResult(&envelope).
			Get("/sessions")
		return checkResponse(resp, err)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch sessions: %w", err)
	}

	sessions := make([]types.Session, 0, len(envelope.Sessions))
	for _, ws := range envelope.Sessions {
		sessions = append(sessions, ws.toSession())
	}
	return sessions, nil
}

// FetchMessages lists the message history of a backend session.
func (c *Client) FetchMessages(ctx context.Context, sessionID string) ([]types.Message, error) {
	var envelope messagesEnvelope
	err := c.call(ctx, "fetch_messages", func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetPathParam("id", sessionID).
			SetResult(&envelope).
			Get("/sessions/{id}/messages")
		return checkResponse(resp, err)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch messages for %s: %w", sessionID, err)
	}

	messages := make([]types.Message, 0, len(envelope.Messages))
	for _, wm := range envelope.Messages {
		messages = append(messages, wm.toMessage())
	}
	return messages, nil
}

// CreateSession creates a backend session and returns it with its assigned id.
func (c *Client) CreateSession(ctx context.Context, userID, title string) (*types.Session, error) {
	var envelope sessionEnvelope
	err := c.call(ctx, "create_session", func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(map[string]string{"user_id": userID, "title": title}).
			SetResult(&envelope).
			Post("/sessions")
		return checkResponse(resp, err)
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	session := envelope.Session.toSession()
	return &session, nil
}

// UpdateTitle pushes a session rename to the backend.
func (c *Client) UpdateTitle(ctx context.Context, sessionID, title string) error {
	err := c.call(ctx, "update_title", func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetPathParam("id", sessionID).
			SetBody(map[string]string{"title": title}).
			Patch("/sessions/{id}")
		return checkResponse(resp, err)
	})
	if err != nil {
		return fmt.Errorf("update title for %s: %w", sessionID, err)
	}
	return nil
}

// DeleteSession removes a session from the backend.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	err := c.call(ctx, "delete_session", func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetPathParam("id", sessionID).
			Delete("/sessions/{id}")
		return checkResponse(resp, err)
	})
	if err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

// AppendMessage stores a message on the backend and returns the confirmed
// copy with its backend-assigned id and timestamp.
func (c *Client) AppendMessage(ctx context.Context, sessionID string, msg types.Message) (*types.Message, error) {
	var envelope messageEnvelope
	err := c.call(ctx, "append_message", func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetPathParam("id", sessionID).
			SetBody(map[string]string{
				"sender":    string(msg.Role),
				"message":   msg.Content,
				"timestamp": msg.CreatedAt.UTC().Format(time.RFC3339),
			}).
			SetResult(&envelope).
			Post("/sessions/{id}/messages")
		return checkResponse(resp, err)
	})
	if err != nil {
		return nil, fmt.Errorf("append message to %s: %w", sessionID, err)
	}

	confirmed := envelope.Message.toMessage()
	return &confirmed, nil
}

// RequestAssistantReply asks the backend to generate an assistant reply for
// the session. A 404 means no reply is available and is not an error.
func (c *Client) RequestAssistantReply(ctx context.Context, sessionID string) (*types.Message, error) {
	var envelope messageEnvelope
	notFound := false
	err := c.call(ctx, "assistant_reply", func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetPathParam("id", sessionID).
			SetResult(&envelope).
			Post("/sessions/{id}/assistant")
		if err == nil && resp != nil && resp.StatusCode() == http.StatusNotFound {
			notFound = true
			return nil
		}
		return checkResponse(resp, err)
	})
	if err != nil {
		return nil, fmt.Errorf("assistant reply for %s: %w", sessionID, err)
	}
	if notFound {
		c.log.Debug("assistant endpoint returned no reply",
			zap.String("session_id", sessionID))
		return nil, nil
	}

	reply := envelope.Message.toMessage()
	return &reply, nil
}

// FetchKeys returns the credential fields stored on the backend.
func (c *Client) FetchKeys(ctx context.Context) (types.APIKeys, error) {
	var envelope keysEnvelope
	err := c.call(ctx, "fetch_keys", func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetResult(&envelope).
			Get("/user/keys")
		return checkResponse(resp, err)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch keys: %w", err)
	}
	if envelope.Keys == nil {
		return types.APIKeys{}, nil
	}
	return envelope.Keys, nil
}

// SetKey stores one credential field on the backend.
func (c *Client) SetKey(ctx context.Context, field, value string) error {
	if !types.ValidKeyField(field) {
		return fmt.Errorf("unknown credential field %q", field)
	}
	err := c.call(ctx, "set_key", func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(map[string]string{"value": value}).
			Post("/user/" + field)
		return checkResponse(resp, err)
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", field, err)
	}
	return nil
}

// call runs one backend request through the rate limiter and breaker,
// recording metrics.
func (c *Client) call(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		c.metrics.ObserveRemote(op, start, err)
		return err
	}
	err := c.breaker.Execute(fn)
	c.metrics.ObserveRemote(op, start, err)
	return err
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp == nil {
		return fmt.Errorf("no response")
	}
	if resp.IsError() {
		return fmt.Errorf("backend returned %s", resp.Status())
	}
	return nil
}

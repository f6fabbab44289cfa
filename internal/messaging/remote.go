package messaging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/mmcdole/moviemate/internal/domain"
)

const defaultRemoteTimeout = 60 * time.Second

// Remote talks to a background Server over HTTP
type Remote struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewRemote creates a Remote for the server at baseURL
func NewRemote(baseURL string, logger *slog.Logger) *Remote {
	if logger == nil {
		logger = slog.Default()
	}
	return &Remote{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultRemoteTimeout,
		},
		logger: logger,
	}
}

// Send implements Sender
func (r *Remote) Send(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/message", bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("background unreachable: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Response{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e ErrorBody
		_ = json.Unmarshal(data, &e)
		if e.Error == domain.ErrUnknownRequest.Error() {
			return Response{}, domain.ErrUnknownRequest
		}
		return Response{}, fmt.Errorf("unexpected status code: %d: %s", resp.StatusCode, e.Error)
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return Response{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return out, nil
}

// ReportBlocked asks the background whether a subresource request is
// blocked. A block raises the shared count and pushes to subscribers.
func (r *Remote) ReportBlocked(ctx context.Context, rawURL, resourceType string) (BlockResult, error) {
	body, err := json.Marshal(BlockReport{URL: rawURL, ResourceType: resourceType})
	if err != nil {
		return BlockResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/block", bytes.NewReader(body))
	if err != nil {
		return BlockResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return BlockResult{}, fmt.Errorf("background unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return BlockResult{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var out BlockResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&out); err != nil {
		return BlockResult{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return out, nil
}

// Subscribe streams pushes to fn until ctx is done or the connection drops.
// It returns once connected; errors after that end the stream silently.
func (r *Remote) Subscribe(ctx context.Context, fn func(Push)) error {
	_, err := r.subscribe(ctx, fn)
	return err
}

// subscribe is Subscribe; the returned channel closes once both stream
// goroutines have exited.
func (r *Remote) subscribe(ctx context.Context, fn func(Push)) (<-chan struct{}, error) {
	u, err := url.Parse(r.baseURL + "/events")
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	readDone := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
			<-readDone
		case <-readDone:
		}
	}()

	go func() {
		defer close(readDone)
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					r.logger.Debug("push stream ended", "error", err)
				}
				return
			}
			var p Push
			if err := json.Unmarshal(data, &p); err != nil {
				r.logger.Warn("failed to decode push", "error", err)
				continue
			}
			fn(p)
		}
	}()
	return stopped, nil
}

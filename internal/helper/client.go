package helper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"media-inspector/internal/actions"
	"media-inspector/internal/bridge"
	"media-inspector/internal/logging"
	"media-inspector/internal/metadata"
)

// ErrNoInfo is returned when the helper could not extract anything.
var ErrNoInfo = errors.New("helper: no info")

// statusNoInfo is the bridge status of an info reply without content.
const statusNoInfo = 1

// maxReply bounds a helper response body.
const maxReply = 32 << 20

// Config configures a Client.
type Config struct {
	// Addr is the helper address, host:port or a full base URL.
	Addr string
	// Loop receives the callbacks of the asynchronous methods. When nil
	// callbacks run on the goroutine that received the reply.
	Loop *bridge.Loop
	// InfoTimeout and ExecTimeout bound the blocking methods. Zero uses
	// bridge.DefaultTimeout.
	InfoTimeout time.Duration
	ExecTimeout time.Duration
	HTTPClient  *http.Client
}

// Client talks to the helper service. Every request is asynchronous; the
// blocking methods wait for the reply through bridge.Call.
type Client struct {
	base        string
	loop        *bridge.Loop
	infoTimeout time.Duration
	execTimeout time.Duration
	http        *http.Client
}

// New creates a Client.
func New(cfg Config) *Client {
	base := cfg.Addr
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	base = strings.TrimSuffix(base, "/")
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		base:        base,
		loop:        cfg.Loop,
		infoTimeout: cfg.InfoTimeout,
		execTimeout: cfg.ExecTimeout,
		http:        hc,
	}
}

// Loop returns the loop callbacks are delivered on.
func (c *Client) Loop() *bridge.Loop {
	return c.loop
}

// deliver hands r to reply on the loop, or directly without one.
func (c *Client) deliver(reply func(bridge.Result), r bridge.Result) {
	if c.loop == nil {
		reply(r)
		return
	}
	if err := c.loop.Post(func(context.Context) { reply(r) }); err != nil {
		logging.Debug("helper reply dropped: %v", err)
	}
}

// infoOp requests the record of tag for path.
func (c *Client) infoOp(ctx context.Context, tag metadata.Tag, path string) bridge.AsyncFunc {
	return func(reply func(bridge.Result)) {
		go func() {
			u := fmt.Sprintf("%s/api/info/%s?path=%s", c.base, url.PathEscape(string(tag)), url.QueryEscape(path))
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
			if err != nil {
				c.deliver(reply, errorResult(err))
				return
			}
			c.deliver(reply, c.do(req))
		}()
	}
}

// actionOp posts an action request to endpoint.
func (c *Client) actionOp(ctx context.Context, endpoint string, body actions.Request) bridge.AsyncFunc {
	return func(reply func(bridge.Result)) {
		go func() {
			data, err := json.Marshal(body)
			if err != nil {
				c.deliver(reply, errorResult(err))
				return
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+endpoint, bytes.NewReader(data))
			if err != nil {
				c.deliver(reply, errorResult(err))
				return
			}
			req.Header.Set("Content-Type", "application/json")
			c.deliver(reply, c.do(req))
		}()
	}
}

func (c *Client) do(req *http.Request) bridge.Result {
	resp, err := c.http.Do(req)
	if err != nil {
		return errorResult(err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Debug("failed to close helper response: %v", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReply))
	if err != nil {
		return errorResult(err)
	}
	switch {
	case resp.StatusCode == http.StatusNoContent:
		return bridge.Result{Status: statusNoInfo, Message: "no info"}
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return bridge.Result{Status: 0, Payload: body}
	default:
		var e struct {
			Error string `json:"error"`
		}
		msg := resp.Status
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return bridge.Result{Status: -1, Message: msg}
	}
}

func errorResult(err error) bridge.Result {
	return bridge.Result{Status: -1, Message: err.Error()}
}

// InfoAsync requests the record of tag for path and calls done with the
// raw JSON reply. err is ErrNoInfo when the helper found nothing.
func (c *Client) InfoAsync(ctx context.Context, tag metadata.Tag, path string, done func(payload []byte, err error)) {
	c.infoOp(ctx, tag, path)(func(r bridge.Result) {
		done(infoReply(r))
	})
}

// OpenAsync opens path with its default application.
func (c *Client) OpenAsync(ctx context.Context, path string, done func(ok bool)) {
	c.actionOp(ctx, "/api/open", actions.Request{Path: path})(func(r bridge.Result) {
		done(statusOK(r))
	})
}

// OpenWithAsync opens path with app.
func (c *Client) OpenWithAsync(ctx context.Context, path, app string, done func(ok bool)) {
	c.actionOp(ctx, "/api/open-with", actions.Request{Path: path, App: app})(func(r bridge.Result) {
		done(statusOK(r))
	})
}

// LaunchAsync starts app.
func (c *Client) LaunchAsync(ctx context.Context, app string, done func(ok bool)) {
	c.actionOp(ctx, "/api/launch", actions.Request{Path: app})(func(r bridge.Result) {
		done(statusOK(r))
	})
}

// ExecAsync runs command with args on the helper.
func (c *Client) ExecAsync(ctx context.Context, command string, args []string, done func(actions.Output)) {
	c.actionOp(ctx, "/api/exec", actions.Request{Path: command, Args: args})(func(r bridge.Result) {
		out, _ := execReply(r)
		done(out)
	})
}

// Info requests the record of tag for path and waits for it. The returned
// value is a pointer to the record type of tag. The request is abandoned
// when the call times out.
func (c *Client) Info(ctx context.Context, tag metadata.Tag, path string) (interface{}, error) {
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	r := bridge.Call(ctx, c.loop, "info", c.infoTimeout, c.infoOp(reqCtx, tag, path))
	payload, err := infoReply(r)
	if err != nil {
		return nil, err
	}
	return metadata.Decode(tag, payload)
}

// Open opens path with its default application and waits for the reply.
func (c *Client) Open(ctx context.Context, path string) error {
	return c.action(ctx, "open", "/api/open", actions.Request{Path: path})
}

// OpenWith opens path with app and waits for the reply.
func (c *Client) OpenWith(ctx context.Context, path, app string) error {
	return c.action(ctx, "open_with", "/api/open-with", actions.Request{Path: path, App: app})
}

// Launch starts app and waits for the reply.
func (c *Client) Launch(ctx context.Context, app string) error {
	return c.action(ctx, "launch", "/api/launch", actions.Request{Path: app})
}

// Exec runs command with args on the helper and waits for its output. A
// timeout yields status -1 with the output "Timeout".
func (c *Client) Exec(ctx context.Context, command string, args []string) (actions.Output, error) {
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	r := bridge.Call(ctx, c.loop, "exec", c.execTimeout,
		c.actionOp(reqCtx, "/api/exec", actions.Request{Path: command, Args: args}))
	return execReply(r)
}

func (c *Client) action(ctx context.Context, operation, endpoint string, body actions.Request) error {
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	r := bridge.Call(ctx, c.loop, operation, c.infoTimeout, c.actionOp(reqCtx, endpoint, body))
	out, err := execReply(r)
	if err != nil {
		return err
	}
	if out.Status != 0 {
		return fmt.Errorf("helper %s failed: %s", operation, out.Output)
	}
	return nil
}

func infoReply(r bridge.Result) ([]byte, error) {
	switch {
	case r.Status == statusNoInfo:
		return nil, ErrNoInfo
	case !r.OK():
		return nil, fmt.Errorf("helper info failed: %s", r.Message)
	}
	return r.Payload, nil
}

func execReply(r bridge.Result) (actions.Output, error) {
	if !r.OK() {
		return actions.Output{Status: -1, Output: r.Message}, fmt.Errorf("helper request failed: %s", r.Message)
	}
	var out actions.Output
	if err := json.Unmarshal(r.Payload, &out); err != nil {
		return actions.Output{Status: -1, Output: err.Error()}, fmt.Errorf("invalid helper reply: %w", err)
	}
	return out, nil
}

func statusOK(r bridge.Result) bool {
	out, err := execReply(r)
	return err == nil && out.Status == 0
}

// Ping checks that the helper answers its liveness probe.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/livez", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("helper unreachable at %s: %w", c.base, err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("helper at %s answered %d", c.base, resp.StatusCode)
	}
	return nil
}

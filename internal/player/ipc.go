package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"slices"
	"sync"
	"time"
)

// maxQueuedEvents bounds the events kept between awaits; older ones are
// dropped first.
const maxQueuedEvents = 64

// ipcClient speaks mpv's JSON IPC protocol: one JSON object per line in
// both directions, replies matched by request_id. Event lines read while
// waiting for a reply are queued for await.
type ipcClient struct {
	mu      sync.Mutex
	conn    net.Conn
	reader  *bufio.Reader
	nextID  int
	timeout time.Duration
	events  []ipcResponse
}

type ipcRequest struct {
	Command   []any `json:"command"`
	RequestID int   `json:"request_id"`
}

type ipcResponse struct {
	Event     string          `json:"event,omitempty"`
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	RequestID *int            `json:"request_id"`

	// end-file details
	Reason    string `json:"reason,omitempty"`
	FileError string `json:"file_error,omitempty"`
}

// ipcError is a non-"success" reply, e.g. "property unavailable" before
// the first frame is decoded.
type ipcError struct {
	Command string
	Reason  string
}

func (e *ipcError) Error() string {
	return fmt.Sprintf("mpv %s: %s", e.Command, e.Reason)
}

func newIPCClient(conn net.Conn, timeout time.Duration) *ipcClient {
	return &ipcClient{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		timeout: timeout,
	}
}

func (c *ipcClient) call(args ...any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID

	payload, err := json.Marshal(ipcRequest{Command: args, RequestID: id})
	if err != nil {
		return nil, fmt.Errorf("encode mpv command: %w", err)
	}
	payload = append(payload, '\n')

	if c.timeout > 0 {
		c.conn.SetDeadline(time.Now().Add(c.timeout))
		defer c.conn.SetDeadline(time.Time{})
	}

	if _, err := c.conn.Write(payload); err != nil {
		return nil, fmt.Errorf("write mpv command: %w", err)
	}

	for {
		line, err := c.reader.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("read mpv reply: %w", err)
		}
		var resp ipcResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			continue
		}
		if resp.Event != "" {
			c.queue(resp)
			continue
		}
		if resp.RequestID == nil || *resp.RequestID != id {
			// stale reply to a call that timed out
			continue
		}
		if resp.Error != "success" {
			return nil, &ipcError{Command: fmt.Sprint(args[0]), Reason: resp.Error}
		}
		return resp.Data, nil
	}
}

func (c *ipcClient) queue(ev ipcResponse) {
	if len(c.events) == maxQueuedEvents {
		c.events = c.events[1:]
	}
	c.events = append(c.events, ev)
}

// discard drops queued events with the given names.
func (c *ipcClient) discard(names ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = slices.DeleteFunc(c.events, func(ev ipcResponse) bool {
		return slices.Contains(names, ev.Event)
	})
}

// await returns the first event accepted by match, either already queued or
// read from the socket within timeout. Other events are queued.
func (c *ipcClient) await(timeout time.Duration, match func(ipcResponse) bool) (ipcResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := slices.IndexFunc(c.events, match); i >= 0 {
		ev := c.events[i]
		c.events = slices.Delete(c.events, i, i+1)
		return ev, nil
	}

	c.conn.SetReadDeadline(time.Now().Add(timeout))
	defer c.conn.SetReadDeadline(time.Time{})

	for {
		line, err := c.reader.ReadBytes('\n')
		if err != nil {
			return ipcResponse{}, fmt.Errorf("wait for mpv event: %w", err)
		}
		var resp ipcResponse
		if err := json.Unmarshal(line, &resp); err != nil || resp.Event == "" {
			continue
		}
		if match(resp) {
			return resp, nil
		}
		c.queue(resp)
	}
}

func (c *ipcClient) getFloat(name string) (float64, error) {
	data, err := c.call("get_property", name)
	if err != nil {
		return 0, err
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, fmt.Errorf("decode %s: %w", name, err)
	}
	return v, nil
}

func (c *ipcClient) getBool(name string) (bool, error) {
	data, err := c.call("get_property", name)
	if err != nil {
		return false, err
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return v, nil
}

func (c *ipcClient) set(name string, value any) error {
	_, err := c.call("set_property", name, value)
	return err
}

func (c *ipcClient) close() error {
	return c.conn.Close()
}

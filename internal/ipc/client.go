package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Start requests the daemon to start processing.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.client.Call("Flowsight.Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Flowsight.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Flowsight.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Monitor toggles scheduled detection on or off.
func (c *Client) Monitor(enable bool) (*MonitorResponse, error) {
	var resp MonitorResponse
	if err := c.client.Call("Flowsight.Monitor", MonitorRequest{Enable: enable}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Detect triggers one manual detection cycle.
func (c *Client) Detect(windowTitle string, activityDurationMs int64) (*DetectResponse, error) {
	var resp DetectResponse
	req := DetectRequest{WindowTitle: windowTitle, ActivityDurationMs: activityDurationMs}
	if err := c.client.Call("Flowsight.Detect", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Blockers returns blocker records, optionally restricted to active ones.
func (c *Client) Blockers(activeOnly bool) (*BlockersResponse, error) {
	var resp BlockersResponse
	req := BlockersRequest{ActiveOnly: activeOnly}
	if err := c.client.Call("Flowsight.Blockers", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Describe returns details for a single blocker.
func (c *Client) Describe(id string) (*DescribeResponse, error) {
	var resp DescribeResponse
	if err := c.client.Call("Flowsight.Describe", DescribeRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Resolve marks a blocker resolved.
func (c *Client) Resolve(id, action string) (*ResolveResponse, error) {
	var resp ResolveResponse
	req := ResolveRequest{ID: id, Action: action}
	if err := c.client.Call("Flowsight.Resolve", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats retrieves aggregate blocker and event counters.
func (c *Client) Stats() (*StatsResponse, error) {
	var resp StatsResponse
	if err := c.client.Call("Flowsight.Stats", StatsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History retrieves persisted blocker events.
func (c *Client) History(blockerID string, limit int) (*HistoryResponse, error) {
	var resp HistoryResponse
	req := HistoryRequest{BlockerID: blockerID, Limit: limit}
	if err := c.client.Call("Flowsight.History", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DatabaseHealth retrieves detailed database diagnostics.
func (c *Client) DatabaseHealth() (*DatabaseHealthResponse, error) {
	var resp DatabaseHealthResponse
	if err := c.client.Call("Flowsight.DatabaseHealth", DatabaseHealthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Flowsight.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

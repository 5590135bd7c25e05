package nvim

import (
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/neovim/go-client/msgpack/rpc"
)

// Client is one msgpack-rpc session with a running nvim. All protocol work
// lives in go-client's endpoint; this wraps it with the handful of calls the
// remote flags translate to.
type Client struct {
	ep     *rpc.Endpoint
	logger *slog.Logger
}

// Network picks the dial network the way nvim itself reads
// $NVIM_LISTEN_ADDRESS: anything path-shaped is a unix socket, host:port is
// tcp.
func Network(addr string) string {
	if strings.Contains(addr, "/") || !strings.Contains(addr, ":") {
		return "unix"
	}
	return "tcp"
}

func getClientLogger(addr string) *slog.Logger {
	return slog.Default().With("area", "NvimClient").With("addr", addr)
}

// Dial connects to the editor at addr and starts the endpoint's read loop.
// The loop runs until the connection closes; process exit is the only
// teardown a single invocation needs beyond Close.
func Dial(addr string) (*Client, error) {
	logger := getClientLogger(addr)
	logger.Debug("dialing")

	conn, err := net.Dial(Network(addr), addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	ep, err := rpc.NewEndpoint(conn, conn, conn, rpc.WithLogf(func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...))
	}))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("endpoint for %s: %w", addr, err)
	}

	go ep.Serve()

	logger.Debug("attached")
	return &Client{ep: ep, logger: logger}, nil
}

// Command runs an Ex command and waits for it to complete.
func (c *Client) Command(cmd string) error {
	c.logger.Debug("command", "cmd", cmd)
	return c.ep.Call("nvim_command", nil, cmd)
}

// CommandAsync sends the command as a notification: the call returns as soon
// as it is written, and the remote outcome is never reported.
func (c *Client) CommandAsync(cmd string) error {
	c.logger.Debug("command async", "cmd", cmd)
	return c.ep.Notify("nvim_command", cmd)
}

// Input feeds keys into nvim's typeahead. Returns how many bytes were
// actually written on the remote side.
func (c *Client) Input(keys string) (int, error) {
	c.logger.Debug("input", "keys", keys)
	var written int
	err := c.ep.Call("nvim_input", &written, keys)
	return written, err
}

// Eval evaluates a VimL expression. The result is whatever shape the decoder
// hands back; see Normalize for the closed set.
func (c *Client) Eval(expr string) (any, error) {
	c.logger.Debug("eval", "expr", expr)
	var result any
	if err := c.ep.Call("nvim_eval", &result, expr); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) Close() error {
	return c.ep.Close()
}

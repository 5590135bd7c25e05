package dummy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/neovim/go-client/msgpack/rpc"
	"golang.org/x/sync/errgroup"

	"github.com/ohle/neovim-remote/pkg/assert"
	"github.com/ohle/neovim-remote/pkg/nvim"
)

// Call is one request or notification the editor received, in arrival order.
type Call struct {
	Method  string
	Payload string
}

// DummyEditor stands in for a running nvim: it answers nvim_command,
// nvim_input and nvim_eval over real msgpack-rpc endpoints and records what
// it received. Tests and local tinkering only, none of the editor itself
// lives here.
type DummyEditor struct {
	listener      net.Listener
	logger        *slog.Logger
	mutex         sync.Mutex
	calls         []Call
	connections   int
	evalResults   map[string]any
	commandErrors map[string]string
}

// NewDummyEditor listens on addr immediately so Addr is valid before Run.
// The network is inferred from the address shape, same as the client side.
func NewDummyEditor(addr string) (*DummyEditor, error) {
	listener, err := net.Listen(nvim.Network(addr), addr)
	if err != nil {
		return nil, err
	}

	return &DummyEditor{
		listener:      listener,
		logger:        slog.Default().With("area", "DummyEditor"),
		evalResults:   map[string]any{},
		commandErrors: map[string]string{},
	}, nil
}

func (d *DummyEditor) Addr() string {
	return d.listener.Addr().String()
}

// Run accepts connections until ctx is done. Every connection gets its own
// endpoint with the same handler set.
func (d *DummyEditor) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		return d.listener.Close()
	})

	g.Go(func() error {
		for {
			conn, err := d.listener.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}

			d.logger.Info("editor client connected")
			d.mutex.Lock()
			d.connections++
			d.mutex.Unlock()

			// the endpoint only stops when its conn closes, so tie the
			// conn to ctx or Run could never return
			g.Go(func() error {
				<-ctx.Done()
				return conn.Close()
			})
			g.Go(func() error {
				d.serveConn(conn)
				return nil
			})
		}
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

func (d *DummyEditor) serveConn(conn net.Conn) {
	ep, err := rpc.NewEndpoint(conn, conn, conn, rpc.WithLogf(func(format string, args ...any) {
		d.logger.Debug(fmt.Sprintf(format, args...))
	}))
	assert.NoError(err, "dummy editor could not create an endpoint")

	err = ep.Register("nvim_command", func(cmd string) error {
		d.record("nvim_command", cmd)
		if message := d.commandError(cmd); message != "" {
			return errors.New(message)
		}
		return nil
	})
	assert.NoError(err, "dummy editor could not register nvim_command")

	err = ep.Register("nvim_input", func(keys string) (int, error) {
		d.record("nvim_input", keys)
		return len(keys), nil
	})
	assert.NoError(err, "dummy editor could not register nvim_input")

	err = ep.Register("nvim_eval", func(expr string) (any, error) {
		d.record("nvim_eval", expr)
		result, ok := d.evalResult(expr)
		if !ok {
			return nil, fmt.Errorf("E15: Invalid expression: %s", expr)
		}
		return result, nil
	})
	assert.NoError(err, "dummy editor could not register nvim_eval")

	if err := ep.Serve(); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
		d.logger.Warn("endpoint closed with an error", "err", err)
	}

	_ = ep.Close()
	d.logger.Info("editor client disconnected")
}

// Close unblocks Run. Safe to call more than once.
func (d *DummyEditor) Close() {
	d.listener.Close()
}

// SetEvalResult makes expr evaluate to result. Expressions without an entry
// fail with an invalid-expression error, the same shape nvim raises.
func (d *DummyEditor) SetEvalResult(expr string, result any) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.evalResults[expr] = result
}

// SetCommandError makes cmd fail with message. A notification hits the same
// error on the remote side, but its sender never hears about it.
func (d *DummyEditor) SetCommandError(cmd string, message string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.commandErrors[cmd] = message
}

func (d *DummyEditor) evalResult(expr string) (any, bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	result, ok := d.evalResults[expr]
	return result, ok
}

func (d *DummyEditor) commandError(cmd string) string {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.commandErrors[cmd]
}

func (d *DummyEditor) record(method, payload string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.calls = append(d.calls, Call{Method: method, Payload: payload})
}

// Connections counts accepted connections over the editor's lifetime.
func (d *DummyEditor) Connections() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.connections
}

// Calls returns a copy of everything received so far, in arrival order.
func (d *DummyEditor) Calls() []Call {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	out := make([]Call, len(d.calls))
	copy(out, d.calls)
	return out
}

// WaitCalls polls until at least n calls arrived. Notifications land
// asynchronously, so tests fence on this before asserting.
func (d *DummyEditor) WaitCalls(n int, within time.Duration) bool {
	deadline := time.Now().Add(within)
	for {
		if len(d.Calls()) >= n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond * 5)
	}
}

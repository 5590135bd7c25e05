package remote

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ohle/neovim-remote/pkg/assert"
	"github.com/ohle/neovim-remote/pkg/nvim"
)

type DispatcherState int

const (
	DSUnresolved DispatcherState = iota
	DSConnecting
	DSConnected
	DSUnreachable
)

func DispatcherStateToString(state DispatcherState) string {
	switch state {
	case DSUnresolved:
		return "unresolved"
	case DSConnecting:
		return "connecting"
	case DSConnected:
		return "connected"
	case DSUnreachable:
		return "unreachable"
	}

	assert.Never("unknown dispatcher state", "state", state)
	return ""
}

// ErrUnreachable reports that a non-silent action needed a server that never
// answered the dial.
var ErrUnreachable = errors.New("nvim server unreachable")

// Dispatcher owns the one connection of a run. The connection is dialed
// lazily by the first action that needs it, and the dial outcome is cached,
// so a run dials at most once no matter how many actions it carries.
type Dispatcher struct {
	addr   string
	state  DispatcherState
	client *nvim.Client
	logger *slog.Logger
	out    io.Writer
	errOut io.Writer
}

func NewDispatcher(addr string, out io.Writer, errOut io.Writer) *Dispatcher {
	assert.NotNil(out, "dispatcher needs a writer for results")
	assert.NotNil(errOut, "dispatcher needs a writer for diagnostics")
	return &Dispatcher{
		addr:   addr,
		state:  DSUnresolved,
		logger: slog.Default().With("area", "Dispatcher").With("addr", addr),
		out:    out,
		errOut: errOut,
	}
}

func (d *Dispatcher) State() DispatcherState {
	return d.state
}

// Dispatch walks the actions strictly in order. The resolver already emits
// them grouped by command-line category, so one sequential pass is what keeps
// each category's batch complete before the next begins.
func (d *Dispatcher) Dispatch(actions []Action) error {
	for _, action := range actions {
		if err := d.dispatchOne(action); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) dispatchOne(action Action) error {
	attached, err := d.ensureAttached(action.Silent)
	if err != nil {
		return err
	}
	if !attached {
		d.logger.Debug("server unreachable, skipping", "action", action.String())
		return nil
	}

	d.logger.Debug("dispatching", "action", action.String())

	switch action.Kind {
	case ActionOpen, ActionOpenSplit, ActionOpenVSplit, ActionOpenTab:
		return d.command(openExCommand(action.Kind)+" "+EscapePath(action.Payload), action.Wait)

	case ActionFocusPrevWindow:
		return d.command("wincmd p", action.Wait)

	case ActionSendKeys:
		written, err := d.client.Input(action.Payload)
		if err != nil {
			fmt.Fprintf(d.errOut, "sending keys failed: %s\n", err)
			return err
		}
		d.logger.Debug("keys written", "count", written)
		return nil

	case ActionEvalExpr:
		result, err := d.client.Eval(action.Payload)
		if err != nil {
			// one bad expression never aborts the rest of the batch
			d.logger.Debug("eval failed", "expr", action.Payload, "err", err)
			fmt.Fprintf(d.errOut, "evaluating expression failed: %s\n", action.Payload)
			return nil
		}
		fmt.Fprintln(d.out, nvim.Render(result))
		return nil
	}

	assert.Never("unknown action kind", "kind", action.Kind)
	return nil
}

// ensureAttached reports whether the action should proceed. Silent actions
// get (false, nil) against an unreachable server; a non-silent action against
// an unreachable server prints the diagnostic and fails the run.
func (d *Dispatcher) ensureAttached(silent bool) (bool, error) {
	switch d.state {
	case DSConnected:
		return true, nil
	case DSUnreachable:
		if silent {
			return false, nil
		}
		return false, d.unreachable()
	case DSConnecting:
		assert.Never("attach re-entered mid dial", "addr", d.addr)
	case DSUnresolved:
	}

	d.state = DSConnecting
	client, err := nvim.Dial(d.addr)
	if err != nil {
		d.state = DSUnreachable
		d.logger.Debug("dial failed", "err", err)
		if silent {
			return false, nil
		}
		return false, d.unreachable()
	}

	d.state = DSConnected
	d.client = client
	d.logger.Debug("attached", "state", DispatcherStateToString(d.state))
	return true, nil
}

func (d *Dispatcher) unreachable() error {
	fmt.Fprintf(d.errOut, "Can't reach nvim server at %s. Export $NVIM_LISTEN_ADDRESS or use --servername.\n", d.addr)
	return fmt.Errorf("%s: %w", d.addr, ErrUnreachable)
}

func (d *Dispatcher) command(cmd string, wait bool) error {
	var err error
	if wait {
		err = d.client.Command(cmd)
	} else {
		err = d.client.CommandAsync(cmd)
	}

	if err != nil {
		fmt.Fprintf(d.errOut, "remote command failed: %s\n", err)
		return err
	}
	return nil
}

func openExCommand(kind ActionKind) string {
	switch kind {
	case ActionOpen:
		return "edit"
	case ActionOpenSplit:
		return "split"
	case ActionOpenVSplit:
		return "vsplit"
	case ActionOpenTab:
		return "tabedit"
	}

	assert.Never("not an open action", "kind", kind)
	return ""
}

// Close tears down the connection if one was made. Errors only get logged,
// exit codes belong to the actions.
func (d *Dispatcher) Close() {
	if d.client == nil {
		return
	}
	if err := d.client.Close(); err != nil {
		d.logger.Debug("closing connection", "err", err)
	}
}

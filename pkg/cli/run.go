package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/ohle/neovim-remote/pkg/remote"
)

const (
	ExitOK            = 0
	ExitRemoteFailure = 1
	ExitUsage         = 2
)

// Run executes one command line and returns the process exit code. Results
// go to out, diagnostics to errOut. An invocation with nothing to do (or
// with only silent actions against a dead server) is a success.
func Run(argv []string, out io.Writer, errOut io.Writer) int {
	invocation, err := ParseArgs(argv, os.Getenv)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		fmt.Fprint(errOut, Usage())
		return ExitUsage
	}

	if invocation.Help {
		fmt.Fprint(out, Usage())
		return ExitOK
	}

	if invocation.PrintAddress {
		fmt.Fprintln(out, invocation.Address)
	}

	if len(invocation.Actions) == 0 {
		return ExitOK
	}

	dispatcher := remote.NewDispatcher(invocation.Address, out, errOut)
	defer dispatcher.Close()

	if err := dispatcher.Dispatch(invocation.Actions); err != nil {
		return ExitRemoteFailure
	}
	return ExitOK
}

func Usage() string {
	return `usage: nvr [flags] [files...]

Remote-control a running nvim instance over its RPC socket.

  <files>                 open each file in the server (same as --remote-silent)
  -l                      focus the previous window before anything else
  -o <files>              open files in horizontal splits
  -O <files>              open files in vertical splits
  -p, --remote-tab <files>
                          open files in tabs
  --remote <files>        open files, fail when no server answers
  --remote-wait <files>   like --remote, waiting for each open to finish
  --remote-silent <files> open files, silently do nothing without a server
  --remote-wait-silent <files>
                          like --remote-silent, waiting for each open to finish
  --remote-send <keys>    send key sequences to the server
  --remote-expr <exprs>   evaluate expressions and print their results
  --servername <addr>     target address (unix socket path or host:port)
  --serverlist            print the resolved target address
  -h, --help              show this help

The target address falls back to $NVIM_LISTEN_ADDRESS, then /tmp/nvimsocket.
`
}

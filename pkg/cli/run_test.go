package cli_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ohle/neovim-remote/pkg/cli"
	"github.com/ohle/neovim-remote/pkg/dummy"
)

func startEditor(t *testing.T) *dummy.DummyEditor {
	t.Helper()

	addr := filepath.Join(t.TempDir(), "nvim.sock")
	editor, err := dummy.NewDummyEditor(addr)
	require.NoError(t, err, "dummy editor could not listen")

	ctx, cancel := context.WithCancel(context.Background())
	go editor.Run(ctx)
	t.Cleanup(func() {
		cancel()
		editor.Close()
	})

	return editor
}

func runCLI(t *testing.T, argv ...string) (int, string, string) {
	t.Helper()

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	code := cli.Run(argv, out, errOut)
	return code, out.String(), errOut.String()
}

func TestRunBareFilenamesEqualRemoteSilent(t *testing.T) {
	first := startEditor(t)
	code, stdout, stderr := runCLI(t, "--servername", first.Addr(), "a.txt", "b.txt")
	require.Equal(t, cli.ExitOK, code)
	require.Empty(t, stdout)
	require.Empty(t, stderr)
	require.True(t, first.WaitCalls(2, time.Second*5), "edits never arrived")

	second := startEditor(t)
	code, stdout, stderr = runCLI(t, "--servername", second.Addr(), "--remote-silent", "a.txt", "b.txt")
	require.Equal(t, cli.ExitOK, code)
	require.Empty(t, stdout)
	require.Empty(t, stderr)
	require.True(t, second.WaitCalls(2, time.Second*5), "edits never arrived")

	require.ElementsMatch(t, first.Calls(), second.Calls())
}

func TestRunServerlistPrintsResolvedAddress(t *testing.T) {
	code, stdout, stderr := runCLI(t, "--serverlist", "--servername", "/tmp/target.sock")
	require.Equal(t, cli.ExitOK, code)
	require.Equal(t, "/tmp/target.sock\n", stdout)
	require.Empty(t, stderr)

	t.Setenv("NVIM_LISTEN_ADDRESS", "")
	code, stdout, stderr = runCLI(t, "--serverlist")
	require.Equal(t, cli.ExitOK, code)
	require.Equal(t, cli.DefaultAddress+"\n", stdout)
	require.Empty(t, stderr)
}

func TestRunAddressFromEnvironment(t *testing.T) {
	editor := startEditor(t)
	t.Setenv("NVIM_LISTEN_ADDRESS", editor.Addr())

	code, stdout, _ := runCLI(t, "--serverlist", "--remote-wait", "env.txt")
	require.Equal(t, cli.ExitOK, code)
	require.Equal(t, editor.Addr()+"\n", stdout)
	require.Equal(t, []dummy.Call{
		{Method: "nvim_command", Payload: "edit env.txt"},
	}, editor.Calls())
}

func TestRunSpacesSurviveAsOneCommand(t *testing.T) {
	editor := startEditor(t)

	code, _, _ := runCLI(t, "--servername", editor.Addr(), "--remote-wait", "my file.txt")
	require.Equal(t, cli.ExitOK, code)
	require.Equal(t, []dummy.Call{
		{Method: "nvim_command", Payload: `edit my\ file.txt`},
	}, editor.Calls())
}

func TestRunSendKeys(t *testing.T) {
	editor := startEditor(t)

	code, _, _ := runCLI(t, "--servername", editor.Addr(), "--remote-send", "iHello<ESC>")
	require.Equal(t, cli.ExitOK, code)
	require.Equal(t, []dummy.Call{
		{Method: "nvim_input", Payload: "iHello<ESC>"},
	}, editor.Calls())
}

func TestRunSilentMissExitsCleanly(t *testing.T) {
	addr := filepath.Join(t.TempDir(), "absent.sock")

	code, stdout, stderr := runCLI(t, "--servername", addr, "-l", "a.txt", "b.txt")
	require.Equal(t, cli.ExitOK, code)
	require.Empty(t, stdout)
	require.Empty(t, stderr)
}

func TestRunRemoteMissFailsWithDiagnostic(t *testing.T) {
	addr := filepath.Join(t.TempDir(), "absent.sock")

	code, stdout, stderr := runCLI(t, "--servername", addr, "--remote", "a.txt")
	require.Equal(t, cli.ExitRemoteFailure, code)
	require.Empty(t, stdout)
	require.Contains(t, stderr, addr)
	require.Contains(t, stderr, "--servername")
}

func TestRunExprPrintsAndRecovers(t *testing.T) {
	editor := startEditor(t)
	editor.SetEvalResult("v:progname", "nvim")
	editor.SetEvalResult("g:plugins", map[string]any{"fzf": true, "lsp": int64(3)})
	// []byte crosses the wire as a msgpack byte string and must come back as text
	editor.SetEvalResult("g:raw", map[string]any{"head": []byte("data")})

	code, stdout, stderr := runCLI(t,
		"--servername", editor.Addr(),
		"--remote-expr", "v:progname", "g:missing", "g:plugins", "g:raw",
	)
	require.Equal(t, cli.ExitOK, code)
	require.Equal(t, "nvim\nmap[fzf:true lsp:3]\nmap[head:data]\n", stdout)
	require.Contains(t, stderr, "evaluating expression failed: g:missing")
}

func TestRunUsageErrors(t *testing.T) {
	code, stdout, stderr := runCLI(t, "--frobnicate")
	require.Equal(t, cli.ExitUsage, code)
	require.Empty(t, stdout)
	require.Contains(t, stderr, "unknown flag")
	require.Contains(t, stderr, "usage: nvr")
}

func TestRunHelp(t *testing.T) {
	code, stdout, _ := runCLI(t, "--help")
	require.Equal(t, cli.ExitOK, code)
	require.Contains(t, stdout, "usage: nvr")
}

func TestRunWithNothingToDo(t *testing.T) {
	code, stdout, stderr := runCLI(t)
	require.Equal(t, cli.ExitOK, code)
	require.Empty(t, stdout)
	require.Empty(t, stderr)
}

package cli

import (
	"fmt"
	"strings"

	"github.com/ohle/neovim-remote/pkg/remote"
)

// DefaultAddress is where nvim listens when neither --servername nor
// $NVIM_LISTEN_ADDRESS say otherwise.
const DefaultAddress = "/tmp/nvimsocket"

// Invocation is a fully resolved command line: one target address and the
// actions already in dispatch order.
type Invocation struct {
	Address      string
	PrintAddress bool
	Help         bool
	Actions      []remote.Action
}

// ParseArgs resolves argv into an Invocation. It is pure: the environment is
// read through env and nothing is dialed or printed.
//
// Value-taking flags are greedy, consuming tokens until the next flag-shaped
// one, and may repeat; `--flag=value` pins exactly one value instead. Tokens
// after a lone `--` are files regardless of shape. A lone `-` is a file.
func ParseArgs(argv []string, env func(string) string) (*Invocation, error) {
	var (
		focusPrev   bool
		help        bool
		serverlist  bool
		servername  string
		bare        []string
		silents     []string
		waitSilents []string
		remotes     []string
		waits       []string
		tabs        []string
		sends       []string
		exprs       []string
		splits      []string
		vsplits     []string
	)

	greedy := map[string]*[]string{
		"-o":                   &splits,
		"-O":                   &vsplits,
		"-p":                   &tabs,
		"--remote-tab":         &tabs,
		"--remote":             &remotes,
		"--remote-wait":        &waits,
		"--remote-silent":      &silents,
		"--remote-wait-silent": &waitSilents,
		"--remote-send":        &sends,
		"--remote-expr":        &exprs,
	}

	for i := 0; i < len(argv); i++ {
		arg := argv[i]

		if arg == "--" {
			bare = append(bare, argv[i+1:]...)
			break
		}
		if !isFlag(arg) {
			bare = append(bare, arg)
			continue
		}

		name, inline, hasInline := strings.Cut(arg, "=")

		if dest, ok := greedy[name]; ok {
			if hasInline {
				*dest = append(*dest, inline)
				continue
			}
			start := i + 1
			for i+1 < len(argv) && !isFlag(argv[i+1]) {
				i++
			}
			if start > i {
				return nil, fmt.Errorf("%s needs at least one value", name)
			}
			*dest = append(*dest, argv[start:i+1]...)
			continue
		}

		switch name {
		case "-l":
			if hasInline {
				return nil, fmt.Errorf("%s does not take a value", name)
			}
			focusPrev = true
		case "-h", "--help":
			if hasInline {
				return nil, fmt.Errorf("%s does not take a value", name)
			}
			help = true
		case "--serverlist":
			if hasInline {
				return nil, fmt.Errorf("%s does not take a value", name)
			}
			serverlist = true
		case "--servername":
			if hasInline {
				servername = inline
				continue
			}
			if i+1 >= len(argv) || isFlag(argv[i+1]) {
				return nil, fmt.Errorf("--servername needs a value")
			}
			i++
			servername = argv[i]
		default:
			return nil, fmt.Errorf("unknown flag %q", arg)
		}
	}

	// empty means unset, so an empty env var still falls to the default
	address := servername
	if address == "" {
		address = env("NVIM_LISTEN_ADDRESS")
	}
	if address == "" {
		address = DefaultAddress
	}

	var actions []remote.Action
	appendAll := func(kind remote.ActionKind, payloads []string, wait bool, silent bool) {
		for _, payload := range payloads {
			actions = append(actions, remote.Action{
				Kind:    kind,
				Payload: payload,
				Wait:    wait,
				Silent:  silent,
			})
		}
	}

	if focusPrev {
		actions = append(actions, remote.Action{Kind: remote.ActionFocusPrevWindow, Silent: true})
	}
	appendAll(remote.ActionOpen, bare, false, true)
	appendAll(remote.ActionOpen, silents, false, true)
	appendAll(remote.ActionOpen, waitSilents, true, true)
	appendAll(remote.ActionOpen, remotes, false, false)
	appendAll(remote.ActionOpen, waits, true, false)
	appendAll(remote.ActionOpenTab, tabs, true, false)
	appendAll(remote.ActionSendKeys, sends, true, false)
	appendAll(remote.ActionEvalExpr, exprs, true, false)
	appendAll(remote.ActionOpenSplit, splits, true, false)
	appendAll(remote.ActionOpenVSplit, vsplits, true, false)

	return &Invocation{
		Address:      address,
		PrintAddress: serverlist,
		Help:         help,
		Actions:      actions,
	}, nil
}

// isFlag treats any dash-prefixed token longer than one rune as a flag. A
// lone `-` stays a filename.
func isFlag(token string) bool {
	return len(token) > 1 && strings.HasPrefix(token, "-")
}

package remote

import (
	"fmt"
	"strings"

	"github.com/ohle/neovim-remote/pkg/assert"
)

type ActionKind int

const (
	ActionOpen ActionKind = iota
	ActionOpenSplit
	ActionOpenVSplit
	ActionOpenTab
	ActionSendKeys
	ActionEvalExpr
	ActionFocusPrevWindow
)

func ActionKindToString(kind ActionKind) string {
	switch kind {
	case ActionOpen:
		return "open"
	case ActionOpenSplit:
		return "open-split"
	case ActionOpenVSplit:
		return "open-vsplit"
	case ActionOpenTab:
		return "open-tab"
	case ActionSendKeys:
		return "send-keys"
	case ActionEvalExpr:
		return "eval-expr"
	case ActionFocusPrevWindow:
		return "focus-prev-window"
	}

	assert.Never("unknown action kind", "kind", kind)
	return ""
}

// Action is one remote operation with its connection policy already decided.
// Wait selects a blocking request over a notification; Silent means a missing
// server skips the action instead of failing the run.
type Action struct {
	Kind    ActionKind
	Payload string
	Wait    bool
	Silent  bool
}

func (a Action) String() string {
	return fmt.Sprintf("Kind=%s Payload=%q Wait=%v Silent=%v",
		ActionKindToString(a.Kind), a.Payload, a.Wait, a.Silent)
}

// EscapePath escapes spaces so the whole path survives inside a single Ex
// command line.
func EscapePath(path string) string {
	return strings.ReplaceAll(path, " ", "\\ ")
}

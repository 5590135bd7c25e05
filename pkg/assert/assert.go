package assert

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
)

func runAssert(msg string, args ...any) {
	values := []any{"msg", msg, "area", "Assert"}
	values = append(values, args...)

	fmt.Fprintf(os.Stderr, "ASSERT\n")
	for i := 0; i+1 < len(values); i += 2 {
		fmt.Fprintf(os.Stderr, "   %s=%v\n", values[i], values[i+1])
	}
	fmt.Fprintln(os.Stderr, string(debug.Stack()))
	os.Exit(1)
}

func Assert(truth bool, msg string, data ...any) {
	if !truth {
		runAssert(msg, data...)
	}
}

func NotNil(item any, msg string) {
	if item == nil {
		slog.Error("NotNil#nil encountered")
		runAssert(msg)
	}
}

// Never marks switch arms that no caller should be able to reach.
func Never(msg string, data ...any) {
	Assert(false, msg, data...)
}

func NoError(err error, msg string, data ...any) {
	if err != nil {
		slog.Error("NoError#error encountered", "error", err)
		runAssert(msg, data...)
	}
}

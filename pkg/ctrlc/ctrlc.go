package ctrlc

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"
)

// HandleCtrlC cancels ctx on the first interrupt and exits after a short
// grace period for listeners to unwind.
func HandleCtrlC(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	logger := slog.Default().With("area", "CtrlC")
	go func() {
		<-c
		logger.Info("interrupt received, shutting down")
		cancel()
		time.Sleep(time.Millisecond * 250)
		os.Exit(1)
	}()
}

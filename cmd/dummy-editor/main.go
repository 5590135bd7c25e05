package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/ohle/neovim-remote/pkg/cli"
	"github.com/ohle/neovim-remote/pkg/ctrlc"
	"github.com/ohle/neovim-remote/pkg/dummy"
	prettylog "github.com/ohle/neovim-remote/pkg/pretty-log"
)

func main() {
	godotenv.Load()

	addr := ""
	flag.StringVar(&addr, "addr", cli.DefaultAddress, "unix socket path or host:port to listen on")
	flag.Parse()

	prettylog.SetProgramLevelPrettyLogger(slog.LevelDebug, os.Stderr)
	slog.SetDefault(slog.Default().With("process", "DummyEditor"))

	logger := slog.Default().With("area", "dummy-editor")
	logger.Warn("dummy-editor initializing...", "addr", addr)

	editor, err := dummy.NewDummyEditor(addr)
	if err != nil {
		logger.Error("unable to listen", "addr", addr, "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ctrlc.HandleCtrlC(cancel)

	defer editor.Close()
	logger.Info("serving", "addr", editor.Addr())
	if err := editor.Run(ctx); err != nil {
		logger.Error("dummy editor returned with an error", "error", err)
		os.Exit(1)
	}

	logger.Warn("dummy editor finished")
}

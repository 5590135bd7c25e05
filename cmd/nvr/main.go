package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/ohle/neovim-remote/pkg/cli"
	prettylog "github.com/ohle/neovim-remote/pkg/pretty-log"
)

func main() {
	godotenv.Load()

	// logging is off unless asked for, stdout belongs to remote results
	level, _ := prettylog.ParseLevel(os.Getenv("NVR_LOG"))
	prettylog.SetProgramLevelPrettyLogger(level, os.Stderr)
	slog.SetDefault(slog.Default().With("process", "Nvr"))

	os.Exit(cli.Run(os.Args[1:], os.Stdout, os.Stderr))
}

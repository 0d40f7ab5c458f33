// Command picalc computes decimal digits of pi with the Chudnovsky series.
package main

import (
	"context"
	"io"
	"os"

	"github.com/agbru/picalc/internal/app"
	"github.com/agbru/picalc/internal/ui"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout *os.File, stderr io.Writer) int {
	if app.HasVersionFlag(args[1:]) {
		app.PrintVersion(stdout)
		return 0
	}

	// Parse errors and usage are already printed to stderr.
	application, err := app.New(args, stderr)
	if err != nil {
		return app.ExitCodeFor(err)
	}
	// Escape sequences would corrupt redirected output.
	if !ui.IsTerminal(stdout) {
		application.Config.NoColor = true
	}
	return application.Run(context.Background(), stdout)
}

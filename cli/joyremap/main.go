// Package main is the joyremap command.
package main

import (
	"context"

	"github.com/edaniels/golog"
	"go.viam.com/utils"

	"github.com/joyremap/joyremap/cli"
)

func main() {
	utils.ContextualMain(mainWithArgs, golog.NewLogger("joyremap"))
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	app := cli.NewApp()
	return app.RunContext(ctx, args)
}

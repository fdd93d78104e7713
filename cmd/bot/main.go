package main

import (
	"fmt"
	"os"

	"go.uber.org/fx"

	"botrouter/apps/bot"
	"botrouter/apps/gateway"
	"botrouter/internal"
	"botrouter/pkg"
	"botrouter/pkg/config"
)

func main() {
	root := newRootCmd(serve, checkConfig)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(flags config.Flags) error {
	app := fx.New(
		fx.Supply(flags),
		pkg.Module,
		internal.Module,
		bot.Module,
		gateway.Module,
	)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}

func checkConfig(flags config.Flags) error {
	_, err := config.NewConfig(config.Params{Flags: flags})
	return err
}

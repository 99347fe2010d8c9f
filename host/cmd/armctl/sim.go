package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"servoarm/arm/controller"
	"servoarm/core"
)

func simCommand() *cli.Command {
	return &cli.Command{
		Name:  "sim",
		Usage: "Run the controller on stdin/stdout with simulated servos",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			mgr, err := controller.NewManagerWithConfig(cfg, slog.Default())
			if err != nil {
				return err
			}
			if err := mgr.Initialize(core.NewSimServoDriver(), core.NewSystemClock()); err != nil {
				return err
			}

			in := controller.NewChanSource(os.Stdin, 256)
			defer in.Close()
			return mgr.Run(ctx, in, os.Stdout)
		},
	}
}

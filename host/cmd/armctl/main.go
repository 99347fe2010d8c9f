// Command armctl drives the servo arm controller: it runs a simulated
// controller, talks to a real one over serial and exercises the motion
// math offline.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"servoarm/arm"
	"servoarm/arm/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "armctl",
		Usage: "Control and simulate the 5-axis servo arm",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "JSON arm configuration (defaults to the reference arm)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
				Value: "warn",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setLogLevel(cmd.String("log-level"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			simCommand(),
			consoleCommand(),
			sendCommand(),
			solveCommand(),
			plotCommand(),
		},
	}
}

func setLogLevel(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn":
		l = slog.LevelWarn
	default:
		l = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

// loadConfig reads the --config file of the root command
func loadConfig(cmd *cli.Command) (*arm.ArmConfig, error) {
	return config.LoadFile(cmd.String("config"))
}

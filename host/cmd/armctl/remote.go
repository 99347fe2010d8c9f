package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"

	"servoarm/arm/command"
	"servoarm/host/link"
	"servoarm/host/serial"
)

var remoteFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"d"},
		Usage:   "Serial device of the controller (defaults to the configured one)",
	},
	&cli.DurationFlag{
		Name:  "timeout",
		Usage: "How long to wait for each reply",
		Value: link.DefaultTimeout,
	},
}

// openLink opens the controller's serial port and skips its start banner
func openLink(cmd *cli.Command) (*link.Link, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	portCfg := serial.ConfigFromArm(cfg.Serial)
	if device := cmd.String("device"); device != "" {
		portCfg.Device = device
	}

	port, err := serial.Open(portCfg)
	if err != nil {
		return nil, err
	}
	slog.Debug("opened controller", "device", portCfg.Device, "baud", portCfg.Baud)

	if err := port.Flush(); err != nil {
		slog.Debug("could not discard stale input", "error", err)
	}

	l := link.New(port)
	for _, line := range l.Drain(200 * time.Millisecond) {
		slog.Debug("controller", "line", line)
	}
	return l, nil
}

func sendCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Send protocol lines and print the replies",
		ArgsUsage: "LINE...",
		Flags:     remoteFlags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return errors.New("nothing to send")
			}

			l, err := openLink(cmd)
			if err != nil {
				return err
			}
			defer l.Close()

			for _, line := range cmd.Args().Slice() {
				reply, err := l.Exchange(line, cmd.Duration("timeout"))
				if err != nil {
					return err
				}
				fmt.Printf("%s -> %s\n", line, reply)
			}
			return nil
		},
	}
}

func consoleCommand() *cli.Command {
	return &cli.Command{
		Name:    "console",
		Aliases: []string{"i"},
		Usage:   "Interactive line console to a controller",
		Flags:   remoteFlags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			l, err := openLink(cmd)
			if err != nil {
				return err
			}
			defer l.Close()

			return console(ctx, l, cmd.Duration("timeout"))
		},
	}
}

func console(ctx context.Context, l *link.Link, timeout time.Duration) error {
	fmt.Println("Enter protocol lines (empty line for a menu, 'quit' to exit)")

	for ctx.Err() == nil {
		prompt := promptui.Prompt{
			Label:    "arm",
			Validate: validateLine,
		}

		line, err := prompt.Run()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "prompt failed")
		}

		line = strings.TrimSpace(line)
		switch line {
		case "quit", "exit", "q":
			return nil
		case "":
			line, err = selectKeyword()
			if err != nil {
				fmt.Printf("Prompt failed %v\n", err)
				continue
			}
		}

		reply, err := l.Exchange(line, timeout)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Println(reply)
	}
	return ctx.Err()
}

// validateLine rejects lines the controller could never accept
func validateLine(input string) error {
	if len(strings.TrimSpace(input)) > 32 {
		return errors.New("line too long")
	}
	return nil
}

func selectKeyword() (string, error) {
	prompt := promptui.Select{
		Label: "Select Command",
		Items: []string{
			command.KeywordMotor,
			command.KeywordCartesian,
			command.KeywordReset,
			command.KeywordStatus,
			command.KeywordHelp,
		},
	}

	_, result, err := prompt.Run()
	return result, err
}

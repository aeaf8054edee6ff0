package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/smolagent"
	"github.com/urfave/cli/v3"
)

func replayCommand() *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Usage:     "Replay the steps of a saved agent memory",
		ArgsUsage: "MEMORY_JSON",
		Flags: []cli.Flag{
			logLevelFlag(),
			&cli.BoolFlag{
				Name:  "detailed",
				Usage: "Also show the model input of each step",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return goerr.New("exactly one memory file is required")
			}

			logger, err := newLogger(cmd.String("log-level"), os.Stdout)
			if err != nil {
				return err
			}

			memory, err := loadMemory(cmd.Args().First())
			if err != nil {
				return err
			}
			memory.Replay(logger, cmd.Bool("detailed"))
			return nil
		},
	}
}

func loadMemory(path string) (*smolagent.Memory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read memory file", goerr.V("path", path))
	}

	memory := smolagent.NewMemory("")
	if err := json.Unmarshal(raw, memory); err != nil {
		return nil, goerr.Wrap(err, "failed to parse memory file", goerr.V("path", path))
	}
	return memory, nil
}

// Copyright 2019 MPI-SWS, Valentin Wuestholz, and ConsenSys AG

// This file is part of Jumptab.
//
// Jumptab is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Jumptab is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Jumptab.  If not, see <https://www.gnu.org/licenses/>.

// The jumptab binary synthesizes and checks the selector dispatch table of a
// hand-written EVM contract.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/practical-formal-methods/jumptab/config"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "YAML project file; the METH defaults apply when unset",
	}
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=crit, 1=error, 2=warn, 3=info, 4=debug, 5=trace",
		Value: 3,
	}
	jsonFlag = &cli.BoolFlag{
		Name:    "json",
		Aliases: []string{"j"},
		Usage:   "Print JSON instead of a table",
	}
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "jumptab",
		Usage: "dispatch table synthesis and bytecode layout checks",
		Flags: []cli.Flag{configFlag, verbosityFlag},
		// main reports the error and sets the exit status.
		ExitErrHandler: func(*cli.Context, error) {},
		Before: func(ctx *cli.Context) error {
			setupLogging(ctx.Int(verbosityFlag.Name))
			return nil
		},
		Commands: []*cli.Command{
			selectorsCommand,
			schemesCommand,
			searchCommand,
			tableCommand,
			verifyCommand,
			dumpCommand,
			locateCommand,
			defaultsCommand,
		},
	}
}

func main() {
	app := newApp()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func setupLogging(verbosity int) {
	handler := log.NewTerminalHandlerWithLevel(os.Stderr, log.FromLegacyLevel(verbosity), false)
	log.SetDefault(log.NewLogger(handler))
}

// loadConfig returns the project configuration named by --config.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	path := ctx.String(configFlag.Name)
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	log.Debug("Loaded configuration", "path", path)
	return cfg, nil
}

// Copyright 2019 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// graphlayer compiles GraphQL queries against a schema file and serves the
// resulting query plans over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jensneuse/abstractlogger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/xerrors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, "graphlayer:", err)
		os.Exit(1)
	}
}

// app is the state shared by all subcommands.
type app struct {
	v   *viper.Viper
	cfg *Config
	log abstractlogger.Logger
	zap *zap.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{v: viper.New()}
	root := &cobra.Command{
		Use:           "graphlayer",
		Short:         "Compile GraphQL queries into query plans",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.zap != nil {
				a.zap.Sync() // nolint
			}
		},
	}
	flags := root.PersistentFlags()
	flags.String("config", "", "configuration file (YAML, JSON or TOML)")
	flags.String("env-file", ".env", "dotenv file to load if present")
	flags.String("schema", "", "GraphQL schema definition file")
	flags.Int("max-depth", 0, "maximum selection nesting (0 for the default)")
	flags.Int("max-selections", 0, "maximum selections visited after fragment expansion (0 for the default)")
	flags.Int("cache-size", 128, "number of parsed documents to cache (0 to disable)")
	flags.String("log-level", "info", "log level: debug, info, warn or error")

	root.AddCommand(
		newCompileCommand(a),
		newPrintSchemaCommand(a),
		newServeCommand(a),
	)
	return root
}

// init loads configuration from the dotenv file, the environment, the
// optional config file, and command-line flags, then sets up logging.
func (a *app) init(cmd *cobra.Command) error {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return err
	}
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return xerrors.Errorf("load %s: %w", envFile, err)
	}
	cfg, err := loadConfig(a.v, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.zap, err = newZapLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.log = abstractlogger.NewZapLogger(a.zap, abstractlogger.DebugLevel)
	a.log.Debug("configuration loaded",
		abstractlogger.String("schema", cfg.Schema),
		abstractlogger.Int("maxDepth", cfg.MaxDepth),
		abstractlogger.Int("maxSelections", cfg.MaxSelections),
		abstractlogger.Int("cacheSize", cfg.CacheSize))
	return nil
}

func newZapLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, xerrors.Errorf("log level: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.Encoding = "console"
	zcfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	zcfg.OutputPaths = []string{"stderr"}
	return zcfg.Build()
}

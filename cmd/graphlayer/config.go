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

package main

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/xerrors"
)

// envPrefix is prepended to configuration keys to form environment variable
// names, so "cache-size" is read from GRAPHLAYER_CACHE_SIZE.
const envPrefix = "GRAPHLAYER"

// Config is the validated configuration shared by all subcommands.
type Config struct {
	Schema        string `mapstructure:"schema" validate:"required,file"`
	MaxDepth      int    `mapstructure:"max-depth" validate:"gte=0"`
	MaxSelections int    `mapstructure:"max-selections" validate:"gte=0"`
	CacheSize     int    `mapstructure:"cache-size" validate:"gte=0"`
	LogLevel      string `mapstructure:"log-level" validate:"oneof=debug info warn error"`
	Addr          string `mapstructure:"addr" validate:"omitempty,hostname_port"`
}

// loadConfig merges the config file named by the "config" flag (if any), the
// environment, and flags into a Config. Flags that were set explicitly win
// over the environment, which wins over the config file.
func loadConfig(v *viper.Viper, flags *pflag.FlagSet) (*Config, error) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, xerrors.Errorf("load config: %w", err)
	}
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, xerrors.Errorf("load config: %w", err)
		}
	}
	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, xerrors.Errorf("load config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, xerrors.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

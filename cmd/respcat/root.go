// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command respcat is a small demonstration client for the resp package: it
// decodes RESP bytes read from files or stdin into human-readable form and
// encodes command lines into RESP requests. It depends on resp the same
// direction any other caller would — nothing under cmd/ is imported back
// by the core package.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/packetd/resp/common"
	"github.com/packetd/resp/confengine"
	"github.com/packetd/resp/logger"
	"github.com/packetd/resp/resp"
)

var (
	gitHash   string
	buildTime string
)

var configPath string

var rootCmd = &cobra.Command{
	Use:     common.App,
	Short:   "Inspect and build RESP (REdis Serialization Protocol) frames",
	Version: common.Version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file path (optional)")
	cobra.OnInitialize(loadConfig)
}

// respOptions is the resp.Options every subcommand encodes/decodes with,
// seeded from DefaultOptions and overridden by --config.
var respOptions = resp.DefaultOptions()

type fileConfig struct {
	Logger struct {
		Stdout bool   `config:"stdout"`
		Level  string `config:"level"`
	} `config:"logger"`
	Resp struct {
		Version                  int  `config:"version"`
		DictForMap               bool `config:"dictForMap"`
		FlattenAggregatesInRESP2 bool `config:"flattenAggregatesInResp2"`
	} `config:"resp"`
}

func loadConfig() {
	logger.SetOptions(logger.Options{Stdout: true, Level: "info"})

	if configPath == "" {
		return
	}

	cfg, err := confengine.LoadConfigPath(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config %q: %v\n", configPath, err)
		os.Exit(1)
	}

	var fc fileConfig
	fc.Logger.Stdout = true
	fc.Resp.Version = respOptions.RespVersion
	if err := cfg.Unpack(&fc); err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse config %q: %v\n", configPath, err)
		os.Exit(1)
	}

	logger.SetOptions(logger.Options{Stdout: fc.Logger.Stdout, Level: fc.Logger.Level})
	if fc.Resp.Version != 0 {
		respOptions.RespVersion = fc.Resp.Version
	}
	respOptions.DictForMap = fc.Resp.DictForMap
	respOptions.FlattenAggregatesInRESP2 = fc.Resp.FlattenAggregatesInRESP2

	if err := respOptions.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid resp configuration in %q: %v\n", configPath, err)
		os.Exit(1)
	}
}

// Execute runs the root command, the CLI's single entry point.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer rescueOnCrash()
	Execute()
}

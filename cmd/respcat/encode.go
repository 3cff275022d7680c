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

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/packetd/resp/resp"
)

var encodeCmd = &cobra.Command{
	Use:   "encode <command> [args ...]",
	Short: "Encode a command invocation as a RESP Array of BulkStrings",
	Example: `  # build a SET request
  respcat encode SET mykey myvalue`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmdArgs := make([]any, len(args))
		for i, a := range args {
			cmdArgs[i] = a
		}
		// passed as one []any argument so that a lone command word is
		// still framed as a one-element Array rather than a bare BulkString
		b, err := resp.SendCommand(respOptions, cmdArgs)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(b)
		return err
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s (git=%s, built=%s)\n", rootCmd.Use, rootCmd.Version, gitHash, buildTime)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

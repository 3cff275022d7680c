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
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/spf13/cobra"

	"github.com/packetd/resp/common"
	"github.com/packetd/resp/resp"
)

var decodeMetrics = &resp.Metrics{
	FramesDecoded: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: common.App,
		Name:      "frames_decoded_total",
		Help:      "RESP frames successfully decoded",
	}),
	ProtocolErrors: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: common.App,
		Name:      "protocol_errors_total",
		Help:      "RESP frames rejected as malformed",
	}),
}

var decodeJSON bool

var decodeCmd = &cobra.Command{
	Use:   "decode [file ...]",
	Short: "Decode RESP frames from files or stdin, one per line of output",
	Example: `  # decode a recorded request/response stream
  respcat decode session.resp

  # decode from a pipe
  redis-cli -3 ... | respcat decode --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return decodeReader(os.Stdin, "stdin")
		}
		for _, path := range args {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			err = decodeReader(f, path)
			f.Close()
			if err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	decodeCmd.Flags().BoolVar(&decodeJSON, "json", false, "print each decoded value as JSON instead of Go-syntax")
	rootCmd.AddCommand(decodeCmd)
}

func decodeReader(r io.Reader, label string) error {
	d := resp.NewDecoder(respOptions).WithMetrics(decodeMetrics)
	chunk := make([]byte, common.FeedChunkSize)

	flush := func() error {
		for {
			v, ok, err := d.NextValue()
			if err != nil {
				return fmt.Errorf("%s: %w", label, err)
			}
			if !ok {
				return nil
			}
			printValue(v)
		}
	}

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			if ferr := d.Feed(chunk[:n]); ferr != nil {
				return fmt.Errorf("%s: %w", label, ferr)
			}
			if ferr := flush(); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", label, err)
		}
	}
}

func printValue(v resp.Value) {
	if decodeJSON {
		b, err := json.Marshal(v.Native(respOptions))
		if err != nil {
			fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
			return
		}
		fmt.Println(string(b))
		return
	}
	fmt.Printf("%s\n", describeValue(v))
}

func describeValue(v resp.Value) string {
	switch v.Kind {
	case resp.KindArray, resp.KindSet, resp.KindPush:
		if v.Null {
			return fmt.Sprintf("%s(nil)", v.Kind)
		}
		parts := make([]string, len(v.Items))
		for i, item := range v.Items {
			parts[i] = describeValue(item)
		}
		return fmt.Sprintf("%s%v", v.Kind, parts)
	case resp.KindMap, resp.KindAttribute:
		parts := make([]string, len(v.Pairs))
		for i, p := range v.Pairs {
			parts[i] = fmt.Sprintf("%s:%s", describeValue(p.Key), describeValue(p.Value))
		}
		return fmt.Sprintf("%s%v", v.Kind, parts)
	default:
		s, err := v.Text(respOptions)
		if err == nil {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
}

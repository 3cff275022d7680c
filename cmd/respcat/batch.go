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
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/packetd/resp/common"
	"github.com/packetd/resp/internal/sigs"
	"github.com/packetd/resp/logger"
	"github.com/packetd/resp/resp"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <file> [file ...]",
	Short: "Decode a batch of RESP dump files concurrently, reporting any framing errors",
	Example: `  # check every captured session under a directory
  respcat verify sessions/*.resp`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return verifyFiles(args)
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

// verifyFiles decodes each path in its own goroutine, bounded by
// common.Concurrency(), and aggregates every per-file failure into a
// single *multierror.Error rather than stopping at the first bad file. A
// SIGINT/SIGTERM (sigs.Terminate, the same signal channel respcat's root
// command would use for a long-lived server loop) cancels the fan-out:
// in-flight files finish their current chunk, unscheduled files are
// skipped, matching the teacher's controller loop giving its workers one
// chance to wind down instead of being killed outright.
func verifyFiles(paths []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-sigs.Terminate():
			logger.Warnf("verify: received termination signal, winding down")
			cancel()
		case <-ctx.Done():
		}
	}()

	sem := make(chan struct{}, common.Concurrency())
	var wg sync.WaitGroup
	var mu sync.Mutex
	var result *multierror.Error
	counts := make([]int, len(paths))

loop:
	for i, path := range paths {
		select {
		case <-ctx.Done():
			break loop
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()
			defer rescueOnCrash()

			n, err := verifyOne(ctx, path)
			counts[i] = n
			if err != nil {
				mu.Lock()
				result = multierror.Append(result, fmt.Errorf("%s: %w", path, err))
				mu.Unlock()
			}
		}(i, path)
	}
	wg.Wait()

	for i, path := range paths {
		logger.Infof("%s: decoded %d value(s)", path, counts[i])
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("verify cancelled: %w", err)
	}
	if result != nil {
		fmt.Fprintln(os.Stderr, result.Error())
		return fmt.Errorf("%d of %d files failed verification", len(result.Errors), len(paths))
	}
	return nil
}

func verifyOne(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	d := resp.NewDecoder(respOptions).WithMetrics(decodeMetrics)
	chunk := make([]byte, common.FeedChunkSize)
	count := 0

	for {
		select {
		case <-ctx.Done():
			return count, ctx.Err()
		default:
		}

		n, rerr := f.Read(chunk)
		if n > 0 {
			if ferr := d.Feed(chunk[:n]); ferr != nil {
				return count, ferr
			}
			for {
				_, ok, nerr := d.NextValue()
				if nerr != nil {
					return count, nerr
				}
				if !ok {
					break
				}
				count++
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return count, rerr
		}
	}
	return count, nil
}

package main

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/spf13/cobra"

	"github.com/nilstrand/wsclient"
	"github.com/nilstrand/wsclient/internal/ringbuf"
)

func newBenchCmd() *cobra.Command {
	var (
		count       int
		concurrency int
		recvTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "bench <ws-url>",
		Short: "Open one or more connections and report text-echo round-trip latency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := args[0]

			var (
				mu   sync.Mutex
				all  []time.Duration
				errs int
				wg   sync.WaitGroup
			)

			for worker := 0; worker < concurrency; worker++ {
				wg.Add(1)
				go func(id int) {
					defer wg.Done()
					lat, failed := runWorker(url, id, count, recvTimeout)
					mu.Lock()
					all = append(all, lat...)
					errs += failed
					mu.Unlock()
				}(worker)
			}
			wg.Wait()

			fmt.Println(titleStyle.Render("wsclient-bench"))
			fmt.Print(renderKV(
				"url", url,
				"connections", strconv.Itoa(concurrency),
				"sends/conn", strconv.Itoa(count),
				"errors", strconv.Itoa(errs),
				"p50", percentile(all, 0.50).String(),
				"p95", percentile(all, 0.95).String(),
				"p99", percentile(all, 0.99).String(),
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 100, "messages to send per connection")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 1, "number of concurrent connections")
	cmd.Flags().DurationVar(&recvTimeout, "recv-timeout", 5*time.Second, "per-message receive timeout")
	return cmd
}

// runWorker opens one connection (each Conn is owned by exactly one
// goroutine, per the engine's single-threaded contract) and round-trips
// count text messages through a queue that paces one in-flight send at a
// time, recording latency for each successful round trip.
func runWorker(url string, id, count int, recvTimeout time.Duration) ([]time.Duration, int) {
	conn, err := wsclient.Connect(url)
	if err != nil {
		return nil, count
	}
	defer conn.Close()

	pending := queue.New()
	for i := 0; i < count; i++ {
		pending.Add(fmt.Sprintf("worker-%d-msg-%d", id, i))
	}

	// outbound stages each message's bytes through a ring buffer before the
	// send call, a demo of the engine's auxiliary send-side buffering
	// utility (the receive path uses a flat buffer instead; see conn.go).
	outbound := ringbuf.New(4096)

	latencies := make([]time.Duration, 0, count)
	failed := 0

	for pending.Length() > 0 {
		payload := pending.Remove().(string)
		start := time.Now()

		outbound.WriteCopy([]byte(payload))
		staged := make([]byte, len(payload))
		outbound.ReadCopy(staged)

		if err := conn.SendText(staged); err != nil {
			failed++
			continue
		}

		if err := awaitEcho(conn, payload, recvTimeout); err != nil {
			failed++
			continue
		}
		latencies = append(latencies, time.Since(start))
	}
	return latencies, failed
}

// awaitEcho drains Recv until the echoed payload arrives, silently
// retrying on not_ready (a PING/PONG handled internally by the engine).
func awaitEcho(conn *wsclient.Conn, want string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("bench: timed out waiting for echo of %q", want)
		}
		msg, err := conn.Recv(remaining)
		if err != nil {
			if wsErr, ok := err.(*wsclient.Error); ok && wsErr.Code == wsclient.CodeNotReady {
				continue
			}
			return err
		}
		got := string(msg.Payload)
		_ = conn.ReleasePayload()
		if got == want {
			return nil
		}
	}
}

func percentile(samples []time.Duration, p float64) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(p * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Command wsclient-bench is a thin CLI shell over the wsclient package: it
// connects, exchanges a message, or hammers a server with many small
// sends, but contains no protocol logic of its own — everything it does
// goes through the public Conn API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "wsclient-bench",
		Short: "Drive a wsclient connection from the command line",
		Long: `wsclient-bench is a small driver around the wsclient package.

It exists to exercise the client engine from outside Go test binaries:
open a connection, send a message, or run a concurrent text-echo
benchmark and report latency percentiles.`,
	}

	root.AddCommand(newConnectCmd(), newEchoCmd(), newBenchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nilstrand/wsclient"
)

func newConnectCmd() *cobra.Command {
	var handshakeTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "connect <ws-url>",
		Short: "Connect to a server and print the handshake result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := wsclient.Connect(args[0], wsclient.WithHandshakeTimeout(handshakeTimeout))
			if err != nil {
				fmt.Println(errorStyle.Render(fmt.Sprintf("connect failed: %v", err)))
				return err
			}
			defer conn.Close()

			fmt.Println(titleStyle.Render("wsclient-bench connect"))
			fmt.Print(renderKV(
				"url", args[0],
				"state", conn.GetState().String(),
			))
			fmt.Println(successStyle.Render("handshake OK"))
			return nil
		},
	}

	cmd.Flags().DurationVar(&handshakeTimeout, "handshake-timeout", 5*time.Second, "handshake timeout")
	return cmd
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nilstrand/wsclient"
)

func newEchoCmd() *cobra.Command {
	var recvTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "echo <ws-url> <message>",
		Short: "Send one text message and print the first reply",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := wsclient.Connect(args[0])
			if err != nil {
				fmt.Println(errorStyle.Render(fmt.Sprintf("connect failed: %v", err)))
				return err
			}
			defer conn.Close()

			if err := conn.SendText([]byte(args[1])); err != nil {
				fmt.Println(errorStyle.Render(fmt.Sprintf("send failed: %v", err)))
				return err
			}

			for {
				msg, err := conn.Recv(recvTimeout)
				if err != nil {
					if wsErr, ok := err.(*wsclient.Error); ok && wsErr.Code == wsclient.CodeNotReady {
						continue // a PING/PONG was handled internally; keep waiting
					}
					fmt.Println(errorStyle.Render(fmt.Sprintf("recv failed: %v", err)))
					return err
				}
				fmt.Println(infoStyle.Render(fmt.Sprintf("reply (%d bytes): %s", len(msg.Payload), msg.Payload)))
				return conn.ReleasePayload()
			}
		},
	}

	cmd.Flags().DurationVar(&recvTimeout, "recv-timeout", 5*time.Second, "receive timeout")
	return cmd
}

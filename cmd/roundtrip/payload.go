package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/roundtrip/payload"
)

func newPayloadCmd() *cobra.Command {
	var (
		size  int
		token string
		out   string
	)
	cmd := &cobra.Command{
		Use:   "payload",
		Short: "Print the payload a run would publish",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := payload.Generate(size, token)
			if err != nil {
				return err
			}
			if out != "" {
				if err := os.WriteFile(out, body, 0o644); err != nil {
					return fmt.Errorf("write payload: %w", err)
				}
				return nil
			}
			_, err = cmd.OutOrStdout().Write(body)
			return err
		},
	}
	cmd.Flags().IntVar(&size, "size", payload.DefaultSize, "payload size in bytes")
	cmd.Flags().StringVar(&token, "token", payload.DefaultToken, "token repeated to fill the payload")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	return cmd
}

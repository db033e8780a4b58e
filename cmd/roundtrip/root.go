package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "roundtrip",
		Short: "Kafka produce/consume verification harness",
		Long: `roundtrip waits for a Kafka cluster, publishes a single keyed record and
checks that several freshly created consumer groups each read exactly that
record back, byte for byte.

A failed check exits with status 1.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default: search ./config.yml, ./cmd/roundtrip/config.yml)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file loaded before the config")

	cmd.AddCommand(newRunCmd(opts), newPayloadCmd(), newVersionCmd())
	return cmd
}

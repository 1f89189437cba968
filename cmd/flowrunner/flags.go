package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newRootCommand builds the cobra command used purely for flag parsing and
// help text, mirroring crankfire's newFlagCommand pattern.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "flowrunner",
		Short:         "Run a declarative HTTP flow against a target service",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

func configureFlags(flags *pflag.FlagSet) {
	flags.String("flow", "", "Path to the flow definition file (JSON or YAML)")
	flags.String("config", "", "Path to the runtime config file (JSON or YAML)")
	flags.Int("sim-users", 0, "Override sim_users from the config file")
	flags.Bool("debug", false, "Enable debug-level logging")
	flags.Duration("snapshot-interval", 2*time.Second, "How often to print a metrics snapshot")
}

package main

import (
	"github.com/spf13/cobra"

	"mqttha/internal/workflow"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:   "mqttha -c <config>",
		Short: "Publish a retained MQTT message once, then notify and follow up",
		Long: "mqttha connects to an MQTT broker, publishes the configured retained message\n" +
			"(optionally preceded by an availability announcement), mails the run logs when\n" +
			"a recipient is configured, and finally runs the configured follow-up command.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			result, err := workflow.Run(cmd.Context(), cfg, workflow.Options{Console: cmd.OutOrStdout()})
			if err != nil {
				return err
			}
			if code := workflow.ExitCode(result); code != workflow.ExitOK {
				return &exitCodeError{code: code}
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (required)")

	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag, logLevelFlag, logFormatFlag string
	ctx := newCommandContext(&configFlag, &logLevelFlag, &logFormatFlag)
	convert := &convertFlags{}

	rootCmd := &cobra.Command{
		Use:   "omvdecoder",
		Short: "Extract and convert the Theora video embedded in OMV files",
		Example: "  omvdecoder -i intro.omv -o intro.mp4 -f h264\n" +
			"  omvdecoder -i intro.omv -f piped-png | player -",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !convert.given(cmd) {
				return cmd.Help()
			}
			return convert.run(cmd, ctx)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "Log format override (console, json)")
	convert.bind(rootCmd)

	rootCmd.AddCommand(newConvertCommand(ctx))
	rootCmd.AddCommand(newInspectCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

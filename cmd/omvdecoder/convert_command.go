package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"omvdecoder/internal/converter"
	"omvdecoder/internal/faults"
	"omvdecoder/internal/job"
)

type convertFlags struct {
	input  string
	output string
	format string
}

func (f *convertFlags) bind(cmd *cobra.Command) {
	names := make([]string, 0, len(converter.Formats()))
	for _, format := range converter.Formats() {
		names = append(names, string(format))
	}
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "OMV file to convert")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output path (unused for piped-png)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Output format ("+strings.Join(names, ", ")+")")
}

// given reports whether any conversion flag was set on cmd.
func (f *convertFlags) given(cmd *cobra.Command) bool {
	for _, name := range []string{"input", "output", "format"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// validate checks the flag combination before anything touches the input.
func (f *convertFlags) validate() (converter.Format, error) {
	if strings.TrimSpace(f.input) == "" {
		return "", faults.Wrap(faults.ErrConfiguration, "cli", "convert", "--input is required", nil)
	}
	if strings.TrimSpace(f.format) == "" {
		return "", faults.Wrap(faults.ErrConfiguration, "cli", "convert", "--format is required", nil)
	}
	format, err := converter.ParseFormat(f.format)
	if err != nil {
		return "", err
	}
	if !format.WritesStdout() && strings.TrimSpace(f.output) == "" {
		return "", faults.Wrap(faults.ErrConfiguration, "cli", "convert",
			fmt.Sprintf("--output is required for %s", format), nil)
	}
	return format, nil
}

func (f *convertFlags) run(cmd *cobra.Command, ctx *commandContext) error {
	format, err := f.validate()
	if err != nil {
		return err
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.logger(cmd)
	if err != nil {
		return err
	}

	result, err := job.Run(cmd.Context(), job.Options{
		Input:    strings.TrimSpace(f.input),
		Output:   strings.TrimSpace(f.output),
		Format:   format,
		Config:   cfg,
		Logger:   logger,
		Stdout:   cmd.OutOrStdout(),
		Progress: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	if !format.WritesStdout() {
		fmt.Fprintf(cmd.OutOrStdout(), "Converted %s frames (%dx%d) to %s in %s\n",
			humanize.Comma(int64(result.Frames)), result.Video.Width, result.Video.Height,
			format, result.Duration.Round(time.Millisecond))
	}
	return nil
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	flags := &convertFlags{}
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert an OMV file into images, MP4 or a frame stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.run(cmd, ctx)
		},
	}
	flags.bind(cmd)
	return cmd
}

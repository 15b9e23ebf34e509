package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"omvdecoder/internal/config"
	"omvdecoder/internal/container"
	"omvdecoder/internal/deps"
	"omvdecoder/internal/faults"
	"omvdecoder/internal/media/ffprobe"
)

type inspectReport struct {
	Input    string             `json:"input"`
	Size     int                `json:"size"`
	Version  string             `json:"version"`
	Offset   uint32             `json:"stream_offset_field"`
	Metadata container.Metadata `json:"metadata"`
	Stream   *streamReport      `json:"stream,omitempty"`
	Details  *streamDetails     `json:"details,omitempty"`
	Tools    []toolReport       `json:"tools"`
}

type streamDetails struct {
	VideoStreams int             `json:"video_streams"`
	Codec        string          `json:"codec,omitempty"`
	Width        int             `json:"width,omitempty"`
	Height       int             `json:"height,omitempty"`
	PixelFormat  string          `json:"pix_fmt,omitempty"`
	FrameRate    float64         `json:"frame_rate,omitempty"`
	Raw          json.RawMessage `json:"ffprobe"`
}

type streamReport struct {
	Start int `json:"start"`
	End   int `json:"end"`
	Size  int `json:"size"`
}

type toolReport struct {
	Name      string `json:"name"`
	Command   string `json:"command"`
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var input string
	var asJSON, details bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the OMV header and the embedded stream location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(input)
			if path == "" {
				return faults.Wrap(faults.ErrConfiguration, "cli", "inspect", "--input is required", nil)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report, err := buildInspectReport(path, cfg)
			if err != nil {
				return err
			}
			if details {
				if err := analyzeEmbeddedStream(cmd.Context(), path, cfg, &report); err != nil {
					return err
				}
			}
			if asJSON {
				return writeJSON(cmd, report)
			}
			renderInspectReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "OMV file to inspect")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&details, "details", false, "Run ffprobe over the embedded stream")
	return cmd
}

// buildInspectReport parses the header of path. A missing embedded stream is
// reported, not returned as an error.
func buildInspectReport(path string, cfg *config.Config) (inspectReport, error) {
	mapped, err := container.MapFile(path)
	if err != nil {
		return inspectReport{}, faults.Wrap(faults.ErrIO, "cli", "inspect", "", err)
	}
	defer mapped.Close()
	data := mapped.Bytes()

	header, err := container.ParseHeader(data)
	if err != nil {
		return inspectReport{}, err
	}
	report := inspectReport{
		Input:    path,
		Size:     len(data),
		Version:  header.Version(),
		Offset:   header.StreamOffset,
		Metadata: header.Metadata,
	}
	stream, err := container.Locate(data, container.Marker)
	switch {
	case err == nil:
		report.Stream = &streamReport{Start: stream.Start, End: stream.End, Size: stream.Len()}
	case !errors.Is(err, faults.ErrMissingEmbeddedStream):
		return inspectReport{}, err
	}

	statuses := deps.CheckBinaries(deps.ToolRequirements(cfg.FFmpegBinary(), cfg.FFprobeBinary()))
	for _, status := range statuses {
		report.Tools = append(report.Tools, toolReport{
			Name:      status.Name,
			Command:   status.Command,
			Available: status.Available,
			Path:      status.Path,
			Detail:    status.Detail,
		})
	}
	return report, nil
}

// analyzeEmbeddedStream runs ffprobe over the embedded stream of path.
func analyzeEmbeddedStream(ctx context.Context, path string, cfg *config.Config, report *inspectReport) error {
	if report.Stream == nil {
		return faults.Wrap(faults.ErrMissingEmbeddedStream, "cli", "inspect", "no embedded stream", nil)
	}
	mapped, err := container.MapFile(path)
	if err != nil {
		return faults.Wrap(faults.ErrIO, "cli", "inspect", "", err)
	}
	defer mapped.Close()
	stream := container.Range{Start: report.Stream.Start, End: report.Stream.End}

	result, err := ffprobe.InspectReader(ctx, cfg.FFprobeBinary(), bytes.NewReader(stream.Slice(mapped.Bytes())))
	if err != nil {
		return faults.Wrap(faults.ErrDecodeEngineOpen, "cli", "inspect", "", err)
	}
	info := &streamDetails{VideoStreams: result.VideoStreamCount(), Raw: result.RawJSON()}
	if video, ok := result.VideoStream(); ok {
		info.Codec = video.CodecName
		info.Width = video.Width
		info.Height = video.Height
		info.PixelFormat = video.PixFmt
		info.FrameRate = video.FrameRate()
	}
	report.Details = info
	return nil
}

func renderInspectReport(out io.Writer, report inspectReport) {
	meta := report.Metadata
	rows := [][]string{
		{"File", report.Input},
		{"Size", humanize.Bytes(uint64(report.Size))},
		{"Version", report.Version},
		{"Stream offset field", fmt.Sprintf("0x%x", report.Offset)},
		{"Dimensions", fmt.Sprintf("%dx%d", meta.Width, meta.Height)},
		{"Frame count", humanize.Comma(int64(meta.FrameCount))},
		{"Frame time units", strconv.FormatUint(uint64(meta.FrameTimeUnits), 10)},
		{"Data packs", strconv.FormatUint(uint64(meta.DataPackCount), 10)},
		{"Stream IDs", fmt.Sprintf("%d / %d", meta.StreamID, meta.StreamID2)},
	}
	if report.Stream != nil {
		rows = append(rows, []string{"Embedded stream",
			fmt.Sprintf("[%d, %d) %s", report.Stream.Start, report.Stream.End, humanize.Bytes(uint64(report.Stream.Size)))})
	} else {
		rows = append(rows, []string{"Embedded stream", "not found"})
	}
	if p := report.Details; p != nil {
		rows = append(rows,
			[]string{"Decoded video streams", strconv.Itoa(p.VideoStreams)},
			[]string{"Decoded video", fmt.Sprintf("%s %dx%d %s @ %s fps", p.Codec, p.Width, p.Height, p.PixelFormat,
				strconv.FormatFloat(p.FrameRate, 'f', -1, 64))},
		)
	}
	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows))

	toolRows := make([][]string, 0, len(report.Tools))
	for _, tool := range report.Tools {
		detail := tool.Path
		if !tool.Available {
			detail = tool.Detail
		}
		toolRows = append(toolRows, []string{tool.Name, tool.Command, yesNo(tool.Available), detail})
	}
	fmt.Fprintln(out, renderTable([]string{"Tool", "Command", "Available", "Detail"}, toolRows))
}

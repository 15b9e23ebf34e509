// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no omvdecoder-specific dependencies and could be
// extracted as a standalone library.
//
// Key types:
//   - Result: parsed ffprobe output containing stream metadata
//   - Stream: individual stream properties, including pixel format and rates
//
// Primary entry point:
//   - InspectReader: executes ffprobe over stdin and returns parsed Result
//
// Helper methods on Result and Stream locate the first video stream and
// parse ffprobe's rational frame rates.
package ffprobe

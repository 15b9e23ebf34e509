// Package converter turns decoded RGBA frames into one of the supported
// outputs: numbered PNG/JPEG files, a muxed MP4, a piped ffmpeg encode, or
// the PXY4M frame stream on stdout.
//
// Every strategy follows the same lifecycle: one Prepare, zero or more
// ConvertFrame calls with indices 0, 1, 2, ..., then one Finish. Misuse and
// failures are reported through the internal/faults sentinels, and once a
// converter has failed every later call fails too.
package converter

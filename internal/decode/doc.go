// Package decode drives the external Theora decode engine over the embedded
// bitstream.
//
// Source exposes the embedded byte slice through seek/read/close. Engine and
// Session are the engine contract; Adapter opens a session once, validates
// what the engine reports (video present, 4:4:4 planar layout) and pulls
// frames into the job's reusable planar buffer until end of stream.
// FFmpegEngine is the production engine: ffprobe for stream info, ffmpeg for
// raw planar frames.
package decode

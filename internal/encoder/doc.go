// Package encoder runs an ffmpeg libx264 session that accepts packed RGB
// frames on stdin and produces an Annex B H.264 elementary stream.
package encoder

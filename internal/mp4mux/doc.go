// Package mp4mux wraps an Annex B H.264 elementary stream into a single
// track MP4 file using github.com/abema/go-mp4.
//
// The file is laid out as ftyp, mdat, moov with every sample in one chunk.
package mp4mux

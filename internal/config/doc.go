// Package config loads, normalizes, and validates omvdecoder configuration.
//
// It supplies repository defaults, reads TOML from ~/.config/omvdecoder or a
// project-local omvdecoder.toml, and honours the OMVDECODER_FFMPEG and
// OMVDECODER_FFPROBE environment overrides. Callers receive tool names with
// user paths expanded, canonical log settings, and clear validation errors.
package config

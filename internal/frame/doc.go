// Package frame holds the per-frame buffers of the decode loop and the planar
// to interleaved RGBA conversion applied to every decoded frame.
//
// Planar is the single engine-facing buffer: allocated once per job with the
// alignment the decode engine expects, overwritten in place on every pull and
// released exactly once. RGBA frames are derived from it per iteration and
// must not outlive the iteration that produced them.
package frame

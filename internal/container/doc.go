// Package container reads the fixed OMV container header and locates the Ogg
// bitstream embedded behind it.
//
// Key types:
//   - Header / Metadata: the fixed little-endian header layout, preserved
//     byte-for-byte including padding and fields nothing downstream reads
//   - Range: the embedded stream's byte range inside the container
//   - Mapped: a read-only memory mapping of the input file
//
// Primary entry points:
//   - ParseHeader: decodes the header
//   - Locate: finds the first embedded stream marker
//   - MapFile: maps an input file for zero-copy slicing
package container

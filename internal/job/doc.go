// Package job drives one OMV conversion from input file to converter.
//
// Run maps the input, parses the container header, locates the embedded
// Theora stream, opens the decode engine and pumps every decoded frame
// through the colour conversion into the selected output converter. Every
// acquired resource (mapping, output lock, engine session, planar buffer,
// converter) is released on all exit paths.
package job

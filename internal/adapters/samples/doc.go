// Package samples reads health samples from a newline delimited JSON export
//
// The export is written by the device side exporter, one aggregate.Sample per
// line, optionally gzip compressed. FileSource answers range queries over it and
// Watcher reports when the exporter rewrites the file.
package samples

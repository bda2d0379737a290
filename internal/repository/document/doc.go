// Package document reads local text documents and writes them back
// atomically.
//
// Writes go through go-update: the new content is written next to the target,
// verified against its SHA-256 checksum, and swapped in by rename so a reader
// never observes a half-written file. The original file mode is kept.
package document

// Package document models the two text documents kept in sync with the image
// index.
//
// The installer script is treated as a schema of named fields (name,
// code_name, release and the trusted_checksums heredoc), each with its own
// locate and replace strategy. A field must be found exactly once before it
// is read or written; everything outside the fields is left byte-for-byte
// intact. The readme carries an optional badge link whose version segment is
// rewritten.
package document

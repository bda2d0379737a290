// Package status persists the outcome record of a sync run.
//
// FileRepository stores the record as a small JSON object on disk, encoded
// through protobuf JSON (protojson) on a structpb.Struct. Reporter formats the
// outcome and writes it once, at the end of a run, without ever failing the
// run itself.
package status

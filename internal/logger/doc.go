// Package logger wraps zap for the sync tool:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithFields),
//   - level parsing and configuration,
//   - leveled convenience functions (Infof, WarnKV, ErrorKV, etc.).
//
// Every stage of a run receives a context and logs through it, so the run id
// and logger name attached at the start follow each line.
package logger

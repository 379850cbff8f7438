// Package builder runs the external build tool that produces the release binary.
//
// The tool's exit status is always inspected: a non-zero exit becomes an
// *Error carrying the exit code and the combined output, so callers can
// distinguish "the compiler failed" from everything else going wrong around it.
package builder

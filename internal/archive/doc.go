// Package archive writes and reads the distribution archives.
//
// Entries are stored relative to the archived directory, so extracting an
// archive reproduces its contents without a wrapping folder. Archives are
// written through a temporary file and renamed into place, which keeps a
// failed run from leaving a truncated archive behind.
package archive

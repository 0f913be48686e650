// Package logs reads mover log files for the CLI.
//
// Last returns the trailing lines of a file with bounded memory, ReadFrom
// resumes at a byte offset, and Follow streams appended lines as fsnotify
// reports writes. A file that shrinks below the tracked offset is treated as
// rotated and read from the start.
package logs

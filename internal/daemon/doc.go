// Package daemon coordinates the long-running mover process.
//
// It wires configuration, the seen-link store, the feed poller, the
// filesystem watcher and the torrent submitter into a single lifecycle with
// flock-based locking to prevent multiple instances. Five tasks run
// concurrently: the dedup responder, the feed poller, the watch loop, the
// placer and the submitter. A task that fails is logged and stays stopped;
// its siblings keep running until the process context is cancelled.
package daemon

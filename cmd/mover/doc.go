// Command mover runs the feed-to-library pipeline daemon and offers
// operator utilities: configuration scaffolding, seen-link and history
// inspection, classification dry runs, manual torrent submission and
// dependency status checks.
package main

// Package watcher observes the completed-downloads directory and hands
// created or modified paths to the library placer.
//
// Source is the narrow OS notification boundary; the production source wraps
// fsnotify and watches the root recursively. Watcher filters events down to
// creations and modifications whose paths still exist. Placer classifies and
// relocates each forwarded path, logging failures per path.
package watcher

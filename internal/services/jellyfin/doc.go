// Package jellyfin triggers Jellyfin library refreshes after downloads are
// placed in the library.
package jellyfin

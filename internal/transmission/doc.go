// Package transmission talks to a Transmission daemon over its JSON RPC
// interface.
//
// Client handles the X-Transmission-Session-Id handshake: a 409 response
// carries a fresh token which is stored and the request retried, up to a
// configured bound. Submitter consumes approved feed links and adds each as a
// torrent.
package transmission

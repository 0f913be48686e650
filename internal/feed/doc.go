// Package feed polls a syndication feed and forwards links that have not been
// seen before.
//
// Each poll fetches the feed, decodes it, asks the dedup responder about every
// link in feed order and sends fresh links on the approved channel. Failures
// are logged and the poller waits for the next tick; there is no backoff.
package feed

// Package notifications delivers daemon events via ntfy.
//
// The default implementation publishes to the ntfy topic URL configured in
// config.toml and degrades to a no-op when no topic is set. Submissions,
// placements and task errors can be toggled individually.
package notifications

// Package notifications delivers blocker events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Per-event toggles and a dedup window keep a flapping blocker from
// flooding the topic.
//
// Extend this package if you need alternative transports; all daemon code
// depends only on the simple Service interface.
package notifications

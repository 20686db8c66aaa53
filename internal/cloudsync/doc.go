// Package cloudsync delivers persisted blocker events to the FlowSight
// dashboard. Delivery is at-least-once: events are marked synced only after
// the dashboard accepts a batch, and failures leave the backlog intact for
// the next cycle. A rate-limit floor keeps bursty detection from hammering
// the dashboard.
package cloudsync

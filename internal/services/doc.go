// Package services defines the shared error taxonomy for pictor components.
//
// Sentinel errors classify failures the presentation layer must render
// differently: permission problems, vanished files, unsupported rating
// writes, corrupt metadata regions, and lost watch subscriptions. Components
// tag errors with Wrap so callers can route on errors.Is without parsing
// message text.
package services

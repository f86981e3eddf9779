// Package environment holds the static table of deployment targets.
//
// Each environment has an ID, a display name and the base URL requests are
// sent to:
//
//	dev      Development  https://heron-selected-literally.ngrok-free.app
//	staging  Staging      https://staging-calendar.witcc.dev
//	prod     Production   https://server-calendar.witcc.dev
//
// The set is fixed at build time. Adding a target only requires a new entry
// in the registry table.
package environment

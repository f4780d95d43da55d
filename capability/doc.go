// Package capability probes the environment for the optional external
// backends some conversions depend on: a headless office renderer, a
// PDF rasterizer, and a headless browser.
//
// Probing runs once per process and the resulting Set is immutable, so
// a conversion either sees a capability or it does not; availability
// never flips mid-run. Conversions that need an absent capability fail
// up front with a *capability.Error before any work is performed.
package capability

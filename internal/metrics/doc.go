// Package metrics exposes mount and cache behavior through a prometheus
// registry: operation outcomes, cache hit rates, decompression volume, and
// handle reclamation.
package metrics

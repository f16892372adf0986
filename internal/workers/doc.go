// Package workers sizes worker pools for parallel fingerprinting based
// on available CPUs, respecting container CPU limits via GOMAXPROCS.
package workers

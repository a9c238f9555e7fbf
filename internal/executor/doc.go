// Package executor dispatches one build job per matrix target plus the WASM
// pipeline as independent parallel units, then joins them at a barrier.
//
// There is deliberately no fail-fast across jobs: a failed target never
// cancels its siblings, so a single release attempt yields the full
// cross-platform diagnostic picture. The only downstream effect of a failure
// is that the aggregation barrier later refuses to proceed.
package executor

// relax.go
//
// Spin-wait hint. Kept as a no-op so the build needs neither cgo nor
// per-architecture assembly; the write lock's bounded spin plus Gosched
// escalation carries the fairness burden. Platforms wanting PAUSE/YIELD can
// swap this for a build-tagged implementation without touching callers.

package cache

//go:nosplit
func cpuRelax() {
	// Compiler eliminates this entirely when inlined.
}

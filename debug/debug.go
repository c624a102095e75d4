// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: debug.go — Cold-path error logging helper (zero-alloc)
//
// Purpose:
//   - Logs infrequent failure paths without introducing heap pressure.
//   - Used only off the hot path: config errors, arena mapping fallback,
//     harness lifecycle notices.
//
// Notes:
//   - Avoids fmt.Sprintf to minimize footprint and latency.
//   - No interfaces, no allocation beyond the message concatenation itself.
//
// ⚠️ Never invoke in hot loops — use only in failure diagnostics.
// ─────────────────────────────────────────────────────────────────────────────

package debug

import "flatlru/utils"

// DropError logs an error message with an alloc-free print strategy.
// With a nil err only the prefix is printed, which suits tagged notices.
//
//go:nosplit
func DropError(prefix string, err error) {
	if err != nil {
		utils.PrintWarning(prefix + ": " + err.Error() + "\n")
	} else {
		utils.PrintWarning(prefix + "\n")
	}
}

// DropMessage logs a cold-path diagnostic: state changes, fallback events,
// run summaries.
//
//go:nosplit
func DropMessage(prefix, message string) {
	utils.PrintWarning(prefix + ": " + message + "\n")
}

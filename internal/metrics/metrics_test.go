package metrics

import "testing"

func TestRegisterIdempotent(t *testing.T) {
	// Double registration must not panic.
	Register()
	Register()

	IncSuggestion("row_scan")
	IncToggle("selected")
	IncCommit()
	IncCommitConflict()
}

package types

import "fmt"

// SkipReason classifies a non-fatal condition that kept a path out of the content.
type SkipReason string

const (
	SkipReasonExcluded           SkipReason = "excluded"
	SkipReasonNotIncluded        SkipReason = "not_included"
	SkipReasonPermissionDenied   SkipReason = "permission_denied"
	SkipReasonUnreadable         SkipReason = "unreadable"
	SkipReasonSymlinkCycle       SkipReason = "symlink_cycle"
	SkipReasonSymlinkNotFollowed SkipReason = "symlink_not_followed"
	SkipReasonSymlinkOutsideRoot SkipReason = "symlink_outside_root"
	SkipReasonTooLarge           SkipReason = "too_large"
	SkipReasonBudgetExceeded     SkipReason = "budget_exceeded"
	SkipReasonFileLimit          SkipReason = "file_limit"
)

// IsPatternReason reports whether the reason comes from include/exclude filtering.
func (reason SkipReason) IsPatternReason() bool {
	return reason == SkipReasonExcluded || reason == SkipReasonNotIncluded
}

// FatalScanError reports a root path that cannot be scanned at all.
type FatalScanError struct {
	Path string
	Err  error
}

func (scanError *FatalScanError) Error() string {
	return fmt.Sprintf("cannot scan %s: %v", scanError.Path, scanError.Err)
}

func (scanError *FatalScanError) Unwrap() error {
	return scanError.Err
}

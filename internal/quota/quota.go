package quota

import (
	"errors"

	"github.com/postpilot/api/internal/domain/user"
)

// raised when a plan's profile limit would be exceeded
var ErrQuotaExceeded = errors.New("business profile limit reached for plan")

// free accounts get exactly one business profile
const freeTierLimit = 1

// CanCreate decides whether an account on the given tier, currently owning
// ownedCount profiles, may create another. Pure function of its inputs; the
// store re-evaluates it under a row lock at insert time.
func CanCreate(tier string, ownedCount int) bool {
	switch tier {
	case user.TierFree:
		return ownedCount < freeTierLimit
	case user.TierStarter, user.TierPro:
		// paid plans are unbounded
		return true
	default:
		// unknown tier: fail closed
		return false
	}
}

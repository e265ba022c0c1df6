package access

import "errors"

// ErrForbidden is returned by every service when the caller's rank does not
// clear the guard for the attempted operation.
var ErrForbidden = errors.New("insufficient rank")

// The guard is a pure function of ranks. Higher value means more privilege.
// Every protected operation funnels through one of these predicates so the
// comparison rules live in exactly one place.

// MinRoleMutationValue is the minimum rank required to create roles, assign
// roles to other accounts, or list all profiles. It equals the seeded ADMIN
// value but is compared by value, never by name.
const MinRoleMutationValue = 10

// Actor is the authenticated caller as seen by the services: the identity and
// the role rank snapshotted into the token at issuance time.
type Actor struct {
	UserID    string
	Email     string
	RoleName  string
	RoleValue int
}

// CanActOn reports whether a caller may mutate or inspect a resource guarded
// by targetValue. Equal rank is not enough.
func CanActOn(callerValue, targetValue int) bool {
	return callerValue > targetValue
}

// MeetsMinimum reports whether a caller clears a declared operation minimum.
func MeetsMinimum(callerValue, minimum int) bool {
	return callerValue >= minimum
}

// CanAssign reports whether a caller may hand out a role of the given value.
// A caller can never assign a role at or above their own rank.
func CanAssign(callerValue, roleValue int) bool {
	return callerValue > roleValue
}

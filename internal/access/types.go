package access

// User is a registered credential holder.
//
// The UID is the opaque identity produced by a tag scan. It is
// case-sensitive and unique within the registry.
type User struct {
	UID     string `json:"uid"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
}

// Reason explains a decision outcome.
type Reason string

// Decision reasons.
const (
	// ReasonUnknownUser denies identities absent from the registry.
	ReasonUnknownUser Reason = "unknown_user"

	// ReasonBlackout denies non-admin users inside a denial window.
	ReasonBlackout Reason = "blackout"

	// ReasonAdmin allows admin users, bypassing the schedule.
	ReasonAdmin Reason = "admin"

	// ReasonPermitted allows non-admin users outside all denial windows.
	ReasonPermitted Reason = "permitted"
)

// Verdict is the outcome of an access decision.
type Verdict struct {
	Allowed bool
	Reason  Reason
}

// allowed and denied build verdicts with their reason.
func allowed(reason Reason) Verdict { return Verdict{Allowed: true, Reason: reason} }
func denied(reason Reason) Verdict  { return Verdict{Allowed: false, Reason: reason} }

package coordinator

// Role identifies which side of the marketplace an actor acts for. Clients
// decide on quotes; providers negotiate by submitting and countering them.
// The system role is used by trusted out-of-band flows (payment capture, the
// expiry sweep) and bypasses ownership checks.
type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
	RoleSystem   Role = "system"
)

// Actor is the authenticated initiator of a command.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

package types

const ContextUserKey = "user"

// AuthenticatedUser is the caller identity resolved from a bearer token. It
// is passed explicitly into every group and content operation.
type AuthenticatedUser struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

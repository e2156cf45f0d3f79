package service

const RoleAdmin = "admin"

// Actor is the authenticated caller as resolved from the bearer token.
type Actor struct {
	UserID   string
	Username string
	Role     string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanModify reports whether the actor may edit or delete content owned by ownerID.
func (a Actor) CanModify(ownerID string) bool {
	return a.UserID != "" && (a.UserID == ownerID || a.IsAdmin())
}

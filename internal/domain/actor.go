package domain

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Email  string
	Role   string
}

func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// CanAccess reports whether the actor may act on resources owned by ownerID.
func (a *Actor) CanAccess(ownerID string) bool {
	return a != nil && (a.IsAdmin() || a.UserID == ownerID)
}

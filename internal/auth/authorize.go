package auth

// The gate functions below are pure decision functions: no I/O, deterministic
// given their inputs. Callers fetch the identity and resource beforehand and
// translate a failure into the boundary's error representation.

// RequireAdmin fails with ErrForbidden unless the identity holds RoleAdmin.
func RequireAdmin(u *User) error {
	if u == nil || u.Role != RoleAdmin {
		return ErrForbidden
	}
	return nil
}

// RequireSelfOrAdmin fails with ErrForbidden unless the identity is an admin
// or is the target user itself.
func RequireSelfOrAdmin(u *User, targetID string) error {
	if u == nil {
		return ErrForbidden
	}
	if u.Role == RoleAdmin || u.ID == targetID {
		return nil
	}
	return ErrForbidden
}

// RequireOwnerOrAdmin applies the same rule to resource ownership. Read
// listings for non-admins are scoped to owned resources by the query itself,
// not by this gate.
func RequireOwnerOrAdmin(u *User, resourceOwnerID string) error {
	if u == nil {
		return ErrForbidden
	}
	if u.Role == RoleAdmin || u.ID == resourceOwnerID {
		return nil
	}
	return ErrForbidden
}

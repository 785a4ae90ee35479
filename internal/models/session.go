package models

// SessionState is the typed identity carried by a live session. It is
// stored server-side under an opaque token; the cookie only names the token.
type SessionState struct {
	UserID   int64    `json:"user_id"`
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
	FullName string   `json:"full_name"`
}

// IsAdmin reports whether the session belongs to an admin.
func (s *SessionState) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

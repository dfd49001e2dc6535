package domain

// SessionStatus represents the lifecycle state of an inventory session.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "ACTIVE"
	SessionStatusPaused    SessionStatus = "PAUSED"
	SessionStatusFinalized SessionStatus = "FINALIZED"
)

func (s SessionStatus) String() string { return string(s) }

func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusActive, SessionStatusPaused, SessionStatusFinalized:
		return true
	}
	return false
}

// SessionAction is a lifecycle transition requested on a session.
type SessionAction string

const (
	SessionActionPause    SessionAction = "PAUSE"
	SessionActionResume   SessionAction = "RESUME"
	SessionActionFinalize SessionAction = "FINALIZE"
)

// Transition returns the status reached by applying action to s.
// FINALIZED is terminal: every action on it returns ErrSessionFinalized,
// including a second finalize.
func (s SessionStatus) Transition(action SessionAction) (SessionStatus, error) {
	if s == SessionStatusFinalized {
		return s, ErrSessionFinalized
	}
	switch action {
	case SessionActionPause:
		if s == SessionStatusActive {
			return SessionStatusPaused, nil
		}
	case SessionActionResume:
		if s == SessionStatusPaused {
			return SessionStatusActive, nil
		}
	case SessionActionFinalize:
		return SessionStatusFinalized, nil
	}
	return s, ErrInvalidTransition
}

// RefKind distinguishes real catalog products from provisional placeholders.
type RefKind string

const (
	RefKindReal        RefKind = "REAL"
	RefKindProvisional RefKind = "PROVISIONAL"
)

func (k RefKind) String() string { return string(k) }

func (k RefKind) IsValid() bool {
	return k == RefKindReal || k == RefKindProvisional
}

// EntityType identifies the kind of domain entity (used in audit logs).
type EntityType string

const (
	EntityTypeTenantProduct EntityType = "TENANT_PRODUCT"
	EntityTypeProvisional   EntityType = "PROVISIONAL_PRODUCT"
	EntityTypeSession       EntityType = "SESSION"
)

func (e EntityType) String() string { return string(e) }

func (e EntityType) IsValid() bool {
	switch e {
	case EntityTypeTenantProduct, EntityTypeProvisional, EntityTypeSession:
		return true
	}
	return false
}

// AuditAction represents the kind of mutation recorded in the audit log.
type AuditAction string

const (
	AuditActionCreate  AuditAction = "CREATE"
	AuditActionUpdate  AuditAction = "UPDATE"
	AuditActionDelete  AuditAction = "DELETE"
	AuditActionResolve AuditAction = "RESOLVE"
)

func (a AuditAction) String() string { return string(a) }

func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionCreate, AuditActionUpdate, AuditActionDelete, AuditActionResolve:
		return true
	}
	return false
}

// UserRole represents the authorization level of a caller.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

func (r UserRole) String() string { return string(r) }

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleUser, UserRoleAdmin:
		return true
	}
	return false
}

func (r UserRole) IsAdmin() bool {
	return r == UserRoleAdmin
}

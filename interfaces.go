package trackpro

import "context"

// SessionStore holds the process-wide session.
// Implementations: session/ (in-memory with optional persistence).
type SessionStore interface {
	// Snapshot returns an immutable copy of the current session.
	Snapshot() Session

	// SetUser replaces the session wholesale.
	SetUser(userID string, role Role, accessToken string) error

	// RemoveUser clears the session wholesale.
	RemoveUser() error

	// Version increases every time the session is replaced or cleared.
	Version() uint64
}

// Requester issues API calls on behalf of the current session.
// Implementations: rest/ (HTTP with one-shot token refresh).
type Requester interface {
	// Do sends req with the session's bearer token, refreshing once on 401.
	Do(ctx context.Context, req *PendingRequest) (*Response, error)

	// DoAnonymous sends req without credentials and without retry.
	DoAnonymous(ctx context.Context, req *PendingRequest) (*Response, error)

	// Refresh exchanges the stored token for a new one and updates the session.
	Refresh(ctx context.Context) (string, error)
}

// AuthService authenticates users and manages the session lifecycle.
type AuthService interface {
	Login(ctx context.Context, user LoginUser) (Session, error)
	Signup(ctx context.Context, user SignupUser) (Session, error)
	Refresh(ctx context.Context) (Session, error)
	Logout(ctx context.Context) error
}

// ProjectService reads and writes projects.
type ProjectService interface {
	List(ctx context.Context, opts ListOptions) ([]Project, error)
	Get(ctx context.Context, id string) (*Project, error)
	Create(ctx context.Context, p ProjectCreate) (*Project, error)
	Update(ctx context.Context, id string, p ProjectUpdate) (*Project, error)
}

// PaymentService records payments against projects.
type PaymentService interface {
	Add(ctx context.Context, projectID, userID string, p PaymentCreate) (*Payment, error)
}

// ProfileService reads and updates user profiles.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*Profile, error)
	Update(ctx context.Context, userID string, p ProfileUpdate) (*Profile, error)
}

// AccountService lists user accounts. Administrators only.
type AccountService interface {
	List(ctx context.Context) ([]Account, error)
	ListWithProfile(ctx context.Context) ([]Account, error)
}

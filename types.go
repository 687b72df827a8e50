package trackpro

import (
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
)

// Role is the account role carried by a session.
type Role string

const (
	RoleNone   Role = ""
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// Valid reports whether r is one of the known roles, including RoleNone.
func (r Role) Valid() bool {
	switch r {
	case RoleNone, RoleAdmin, RoleClient:
		return true
	}
	return false
}

// Session is the authenticated identity held by the client.
// The three fields are either all set or all empty.
type Session struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	Role        Role   `json:"role"`
}

// Authenticated reports whether the session carries a token.
func (s Session) Authenticated() bool { return s.AccessToken != "" }

// Consistent reports whether the set-together invariant holds.
func (s Session) Consistent() bool {
	empty := s.AccessToken == ""
	return empty == (s.UserID == "") && empty == (s.Role == RoleNone) && s.Role.Valid()
}

// AuthResponse is returned by the login, signup and token refresh endpoints.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	Role        Role   `json:"role"`
}

// Session converts the response into a session value.
func (a AuthResponse) Session() Session {
	return Session{AccessToken: a.AccessToken, UserID: a.UserID, Role: a.Role}
}

// PendingRequest describes an HTTP call that has not completed yet.
// It holds everything needed to replay the call with a different token.
type PendingRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return ErrEmptyBody
	}
	return json.Unmarshal(r.Body, v)
}

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectRegistering ProjectStatus = "registering"
	ProjectProgressing ProjectStatus = "progressing"
	ProjectFinished    ProjectStatus = "finished"
)

// Project is a tracked project with its payment history.
type Project struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	Username    string        `json:"username"`
	Name        string        `json:"project_name"`
	Description string        `json:"description"`
	Price       float64       `json:"price"` // millions of VND
	Status      ProjectStatus `json:"status"`
	StartTime   string        `json:"start_time"`
	EndTime     string        `json:"end_time"`
	Payments    []Payment     `json:"payment"`
}

// ProjectCreate is the body of a project creation request.
type ProjectCreate struct {
	UserID      string        `json:"user_id" validate:"required"`
	Name        string        `json:"name" validate:"required"`
	Description string        `json:"description"`
	Price       string        `json:"price,omitempty" validate:"omitempty,numeric"`
	Status      ProjectStatus `json:"status" validate:"required,oneof=registering progressing finished"`
	StartTime   string        `json:"start_time,omitempty"`
	EndTime     string        `json:"end_time,omitempty"`
}

// ProjectUpdate is the body of a project update request.
type ProjectUpdate struct {
	Name        string        `json:"name" validate:"required"`
	Description string        `json:"description"`
	Price       string        `json:"price,omitempty" validate:"omitempty,numeric"`
	Status      ProjectStatus `json:"status" validate:"required,oneof=registering progressing finished"`
	StartTime   string        `json:"start_time,omitempty"`
	EndTime     string        `json:"end_time,omitempty"`
}

// Payment is a single payment recorded against a project.
type Payment struct {
	ID        int64   `json:"id"`
	Amount    float64 `json:"amount"`
	CreatedAt string  `json:"created_at"`
}

// PaymentCreate is the body of a payment creation request.
type PaymentCreate struct {
	Amount float64 `json:"amount" validate:"gt=0"`
}

// Profile is the personal information attached to an account.
type Profile struct {
	UserID      string `json:"user_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	ImageURL    string `json:"image_url"`
	About       string `json:"about"`
	PhoneNumber string `json:"phone_number"`
}

// ProfileUpdate is the body of a profile update request.
type ProfileUpdate struct {
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
	About       string `json:"about"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,e164|numeric"`
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
}

// AccountStatus is the activation state of an account.
type AccountStatus string

const (
	AccountPending   AccountStatus = "pending"
	AccountActivated AccountStatus = "activated"
)

// Account is a user account as listed by administrators.
type Account struct {
	UserID    string        `json:"user_id"`
	Username  string        `json:"username"`
	Type      Role          `json:"type"`
	Status    AccountStatus `json:"status"`
	FirstName string        `json:"first_name,omitempty"`
	LastName  string        `json:"last_name,omitempty"`
}

// LoginUser holds login credentials.
type LoginUser struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SignupUser holds the fields of the signup form.
type SignupUser struct {
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Username        string `json:"username" validate:"required,min=3"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// ListOptions filters project listings.
type ListOptions struct {
	ByUserID      string
	ReturnPayment bool
}

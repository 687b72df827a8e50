// Package account implements trackpro.AccountService.
package account

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	trackpro "github.com/chimerakang/trackpro-go"
)

// Service lists accounts through a session-aware requester.
type Service struct {
	rc trackpro.Requester
}

// compile-time check
var _ trackpro.AccountService = (*Service)(nil)

// New creates an account service.
func New(rc trackpro.Requester) *Service {
	return &Service{rc: rc}
}

// List returns every account. Administrators only.
func (s *Service) List(ctx context.Context) ([]trackpro.Account, error) {
	return s.list(ctx, nil)
}

// ListWithProfile returns every account with the owner's first and last name.
func (s *Service) ListWithProfile(ctx context.Context) ([]trackpro.Account, error) {
	return s.list(ctx, url.Values{"profile": {"true"}})
}

func (s *Service) list(ctx context.Context, q url.Values) ([]trackpro.Account, error) {
	resp, err := s.rc.Do(ctx, &trackpro.PendingRequest{Method: http.MethodGet, Path: "/account", Query: q})
	if err != nil {
		return nil, fmt.Errorf("trackpro/account: list: %w", err)
	}
	var out struct {
		Accounts []trackpro.Account `json:"accounts"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("trackpro/account: list: decode: %w", err)
	}
	return out.Accounts, nil
}

// Package profile implements trackpro.ProfileService.
package profile

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	trackpro "github.com/chimerakang/trackpro-go"
	"github.com/chimerakang/trackpro-go/internal/validation"
)

// Service reads and updates profiles through a session-aware requester.
type Service struct {
	rc trackpro.Requester
}

// compile-time check
var _ trackpro.ProfileService = (*Service)(nil)

// New creates a profile service.
func New(rc trackpro.Requester) *Service {
	return &Service{rc: rc}
}

// Get returns the profile of userID.
func (s *Service) Get(ctx context.Context, userID string) (*trackpro.Profile, error) {
	p, err := s.do(ctx, &trackpro.PendingRequest{Method: http.MethodGet, Path: path(userID)})
	if err != nil {
		return nil, fmt.Errorf("trackpro/profile: get %s: %w", userID, err)
	}
	return p, nil
}

// Update replaces the editable fields of userID's profile.
func (s *Service) Update(ctx context.Context, userID string, u trackpro.ProfileUpdate) (*trackpro.Profile, error) {
	if err := validation.Struct(u); err != nil {
		return nil, fmt.Errorf("trackpro/profile: update %s: %w", userID, err)
	}
	p, err := s.do(ctx, &trackpro.PendingRequest{Method: http.MethodPatch, Path: path(userID), Body: u})
	if err != nil {
		return nil, fmt.Errorf("trackpro/profile: update %s: %w", userID, err)
	}
	return p, nil
}

func path(userID string) string { return "/profile/" + url.PathEscape(userID) }

func (s *Service) do(ctx context.Context, req *trackpro.PendingRequest) (*trackpro.Profile, error) {
	resp, err := s.rc.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	var out struct {
		Profile trackpro.Profile `json:"profile"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &out.Profile, nil
}

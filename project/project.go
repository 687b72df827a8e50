// Package project implements trackpro.ProjectService.
package project

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	trackpro "github.com/chimerakang/trackpro-go"
	"github.com/chimerakang/trackpro-go/internal/validation"
)

// Service reads and writes projects through a session-aware requester.
type Service struct {
	rc trackpro.Requester
}

// compile-time check
var _ trackpro.ProjectService = (*Service)(nil)

// New creates a project service.
func New(rc trackpro.Requester) *Service {
	return &Service{rc: rc}
}

// List returns the projects visible to the session, optionally restricted
// to one owner and including payment history.
func (s *Service) List(ctx context.Context, opts trackpro.ListOptions) ([]trackpro.Project, error) {
	q := url.Values{}
	if opts.ByUserID != "" {
		q.Set("by_uid", opts.ByUserID)
	}
	q.Set("returnPayment", strconv.FormatBool(opts.ReturnPayment))

	resp, err := s.rc.Do(ctx, &trackpro.PendingRequest{Method: http.MethodGet, Path: "/project", Query: q})
	if err != nil {
		return nil, fmt.Errorf("trackpro/project: list: %w", err)
	}
	var out struct {
		Projects []trackpro.Project `json:"projects"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("trackpro/project: list: decode: %w", err)
	}
	return out.Projects, nil
}

// Get returns one project with its payments.
func (s *Service) Get(ctx context.Context, id string) (*trackpro.Project, error) {
	resp, err := s.rc.Do(ctx, &trackpro.PendingRequest{
		Method: http.MethodGet,
		Path:   "/project/" + url.PathEscape(id),
		Query:  url.Values{"returnPayment": {"true"}},
	})
	if err != nil {
		return nil, fmt.Errorf("trackpro/project: get %s: %w", id, err)
	}
	var out struct {
		Project trackpro.Project `json:"project"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("trackpro/project: get %s: decode: %w", id, err)
	}
	return &out.Project, nil
}

// Create adds a project. Administrators only.
func (s *Service) Create(ctx context.Context, p trackpro.ProjectCreate) (*trackpro.Project, error) {
	if err := validation.Struct(p); err != nil {
		return nil, fmt.Errorf("trackpro/project: create: %w", err)
	}
	return s.write(ctx, "create", http.MethodPost, "/project", p)
}

// Update replaces the editable fields of a project. Administrators only.
func (s *Service) Update(ctx context.Context, id string, p trackpro.ProjectUpdate) (*trackpro.Project, error) {
	if err := validation.Struct(p); err != nil {
		return nil, fmt.Errorf("trackpro/project: update %s: %w", id, err)
	}
	return s.write(ctx, "update "+id, http.MethodPatch, "/project/"+url.PathEscape(id), p)
}

func (s *Service) write(ctx context.Context, op, method, path string, body any) (*trackpro.Project, error) {
	resp, err := s.rc.Do(ctx, &trackpro.PendingRequest{Method: method, Path: path, Body: body})
	if err != nil {
		return nil, fmt.Errorf("trackpro/project: %s: %w", op, err)
	}
	var out trackpro.Project
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("trackpro/project: %s: decode: %w", op, err)
	}
	return &out, nil
}

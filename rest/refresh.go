package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	trackpro "github.com/chimerakang/trackpro-go"
	"github.com/chimerakang/trackpro-go/audit"
	"github.com/chimerakang/trackpro-go/metrics"
)

var errMissingToken = errors.New("refresh response carries no access token")

// refreshToken is the RefreshFunc used by Do. With shared refresh enabled,
// concurrent callers holding the same stale token wait for a single call.
func (c *Client) refreshToken(ctx context.Context, stale string) (string, error) {
	if !c.sharedRefresh {
		return c.exchange(ctx, stale)
	}
	v, err, shared := c.sf.Do(stale, func() (any, error) {
		// Another flight may already have replaced this token.
		if cur := c.store.Snapshot().AccessToken; cur != "" && cur != stale {
			return cur, nil
		}
		return c.exchange(ctx, stale)
	})
	if shared {
		c.logger.Debug("shared token refresh")
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// exchange posts the stale token to the refresh endpoint and replaces the
// session with the response.
func (c *Client) exchange(ctx context.Context, stale string) (string, error) {
	if stale == "" {
		c.metrics.RecordRefresh(metrics.RefreshNoSession)
		return "", &trackpro.AuthenticationError{Stage: trackpro.StageRefresh, Err: trackpro.ErrNoSession}
	}

	resp, err := c.send(ctx, &trackpro.PendingRequest{Method: http.MethodPost, Path: c.refreshPath}, stale)
	if err != nil {
		c.metrics.RecordRefresh(metrics.RefreshTransport)
		c.refreshAudit(ctx, trackpro.Session{}, err)
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.RecordRefresh(metrics.RefreshRejected)
		authErr := &trackpro.AuthenticationError{
			Stage:      trackpro.StageRefresh,
			StatusCode: resp.StatusCode,
			Body:       trackpro.ParseErrorResponse(resp.Body),
		}
		c.refreshAudit(ctx, trackpro.Session{}, authErr)
		return "", authErr
	}

	var ar trackpro.AuthResponse
	if err := resp.Decode(&ar); err != nil {
		return "", c.refreshFailed(ctx, resp.StatusCode, fmt.Errorf("decode: %w", err))
	}
	if ar.AccessToken == "" {
		return "", c.refreshFailed(ctx, resp.StatusCode, errMissingToken)
	}
	if err := c.store.SetUser(ar.UserID, ar.Role, ar.AccessToken); err != nil {
		return "", c.refreshFailed(ctx, resp.StatusCode, err)
	}

	c.metrics.RecordRefresh(metrics.RefreshSuccess)
	c.logger.Info("access token refreshed", "user_id", ar.UserID, "role", ar.Role)
	c.refreshAudit(ctx, ar.Session(), nil)
	return ar.AccessToken, nil
}

func (c *Client) refreshFailed(ctx context.Context, status int, cause error) error {
	c.metrics.RecordRefresh(metrics.RefreshRejected)
	err := &trackpro.AuthenticationError{Stage: trackpro.StageRefresh, StatusCode: status, Err: cause}
	c.refreshAudit(ctx, trackpro.Session{}, err)
	return err
}

func (c *Client) refreshAudit(ctx context.Context, sess trackpro.Session, err error) {
	e := audit.NewEvent(ctx, audit.ActionRefresh, sess, err)
	e.Path = c.refreshPath
	c.audit.Log(e)
}

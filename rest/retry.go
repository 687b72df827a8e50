package rest

import (
	"context"
	"errors"
	"net/http"

	trackpro "github.com/chimerakang/trackpro-go"
)

// SendFunc performs exactly one network call with the given bearer token.
// The error is non-nil only when no response was received.
type SendFunc func(ctx context.Context, req *trackpro.PendingRequest, token string) (*trackpro.Response, error)

// RequestFunc runs a complete request flow for req.
type RequestFunc func(ctx context.Context, req *trackpro.PendingRequest) (*trackpro.Response, error)

// RefreshFunc exchanges a stale token for a new one and stores the new
// session before returning.
type RefreshFunc func(ctx context.Context, staleToken string) (string, error)

// RetryOnUnauthorized wraps send with the single refresh-and-replay policy:
//
//   - a non-401 response is returned as received;
//   - a 401 re-reads the stored token; without one it fails without
//     refreshing;
//   - a 401 with a token calls refresh once with that token, and a refresh
//     failure is terminal;
//   - after a successful refresh req is replayed once with the new token and
//     the replay outcome is final.
//
// The network is hit at most three times per call.
func RetryOnUnauthorized(send SendFunc, store trackpro.SessionStore, refresh RefreshFunc) RequestFunc {
	return func(ctx context.Context, req *trackpro.PendingRequest) (*trackpro.Response, error) {
		token := store.Snapshot().AccessToken

		resp, err := send(ctx, req, token)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusUnauthorized {
			return resp, Classify(resp, trackpro.StageRequest)
		}
		// The session may have been cleared or rotated while the call was in flight.
		token = store.Snapshot().AccessToken
		if token == "" {
			return resp, &trackpro.AuthenticationError{
				Stage:      trackpro.StageRequest,
				StatusCode: resp.StatusCode,
				Body:       trackpro.ParseErrorResponse(resp.Body),
				Err:        trackpro.ErrNoSession,
			}
		}

		fresh, err := refresh(ctx, token)
		if err != nil {
			return nil, err
		}

		replay, err := send(ctx, req, fresh)
		if err != nil {
			return nil, err
		}
		return replay, Classify(replay, trackpro.StageReplay)
	}
}

// Classify maps a response to the error taxonomy: nil for 2xx,
// *trackpro.AuthenticationError for 401 and *trackpro.ApplicationError for
// anything else.
func Classify(resp *trackpro.Response, stage trackpro.AuthStage) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return &trackpro.AuthenticationError{
			Stage:      stage,
			StatusCode: resp.StatusCode,
			Body:       trackpro.ParseErrorResponse(resp.Body),
		}
	default:
		return &trackpro.ApplicationError{
			StatusCode: resp.StatusCode,
			Body:       trackpro.ParseErrorResponse(resp.Body),
			Response:   resp,
		}
	}
}

func asAuth(err error, target **trackpro.AuthenticationError) bool {
	return errors.As(err, target)
}

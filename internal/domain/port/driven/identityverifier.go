package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/agentmarket/internal/domain/model"
)

// ErrInvalidSignature is returned by IdentityVerifier when a request's
// signature, caller or timestamp does not verify.
var ErrInvalidSignature = errors.New("invalid request signature")

// SignedRequest carries everything needed to authenticate a caller. Caller,
// Timestamp and Signature are the raw header values.
type SignedRequest struct {
	Method    string
	Path      string
	Body      []byte
	Caller    string
	Timestamp string
	Signature string
}

// IdentityVerifier establishes the verified identity of a caller. The
// returned identity is the only value application services trust as "caller".
type IdentityVerifier interface {
	Verify(ctx context.Context, req SignedRequest) (model.Identity, error)
}

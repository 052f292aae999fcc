// Package signature authenticates marketplace callers from Ed25519-signed
// HTTP requests.
package signature

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mr-tron/base58"

	"github.com/ericfisherdev/agentmarket/internal/domain/model"
	"github.com/ericfisherdev/agentmarket/internal/domain/port/driven"
)

// Header names carrying the signed-request credentials.
const (
	HeaderCaller    = "X-Marketplace-Caller"
	HeaderTimestamp = "X-Marketplace-Timestamp"
	HeaderSignature = "X-Marketplace-Signature"
)

// DefaultMaxSkew is the accepted distance between a request timestamp and now.
const DefaultMaxSkew = time.Minute

// Compile-time interface satisfaction check.
var _ driven.IdentityVerifier = (*Verifier)(nil)

// Verifier checks Ed25519 request signatures.
type Verifier struct {
	maxSkew time.Duration
	now     func() time.Time
}

// NewVerifier creates a Verifier that rejects timestamps more than maxSkew
// away from the current time. A non-positive maxSkew uses DefaultMaxSkew.
func NewVerifier(maxSkew time.Duration) *Verifier {
	if maxSkew <= 0 {
		maxSkew = DefaultMaxSkew
	}
	return &Verifier{maxSkew: maxSkew, now: time.Now}
}

// Verify returns the caller identity if the signature covers the request and
// the timestamp is fresh. All failures wrap driven.ErrInvalidSignature.
//
// Only freshness is checked: a captured request verifies again until its
// timestamp leaves the skew window, so a replayed invoke bills the caller a
// second time. Keep the window short.
func (v *Verifier) Verify(_ context.Context, req driven.SignedRequest) (model.Identity, error) {
	if req.Caller == "" || req.Timestamp == "" || req.Signature == "" {
		return model.Identity{}, fmt.Errorf("missing signature headers: %w", driven.ErrInvalidSignature)
	}

	caller, err := model.ParseIdentity(req.Caller)
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: %w", driven.ErrInvalidSignature, err)
	}

	ts, err := strconv.ParseInt(req.Timestamp, 10, 64)
	if err != nil {
		return model.Identity{}, fmt.Errorf("parse timestamp %q: %w", req.Timestamp, driven.ErrInvalidSignature)
	}
	skew := v.now().Sub(time.Unix(ts, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > v.maxSkew {
		return model.Identity{}, fmt.Errorf("timestamp is %s away from now: %w", skew.Round(time.Second), driven.ErrInvalidSignature)
	}

	sig, err := base58.Decode(req.Signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return model.Identity{}, fmt.Errorf("malformed signature: %w", driven.ErrInvalidSignature)
	}

	digest := Digest(req.Method, req.Path, req.Timestamp, req.Body)
	if !ed25519.Verify(caller.PublicKey(), digest[:], sig) {
		return model.Identity{}, fmt.Errorf("signature does not match caller %s: %w", caller, driven.ErrInvalidSignature)
	}

	return caller, nil
}

// CanonicalMessage is the text a caller signs:
// METHOD\nPATH\nTIMESTAMP\nhex(sha256(body)).
func CanonicalMessage(method, path, timestamp string, body []byte) string {
	bodyHash := sha256.Sum256(body)
	return method + "\n" + path + "\n" + timestamp + "\n" + hex.EncodeToString(bodyHash[:])
}

// Digest is the sha256 of the canonical message; the Ed25519 signature is
// computed over it.
func Digest(method, path, timestamp string, body []byte) [sha256.Size]byte {
	return sha256.Sum256([]byte(CanonicalMessage(method, path, timestamp, body)))
}

// Headers holds the three credential header values for one request.
type Headers struct {
	Caller    string
	Timestamp string
	Signature string
}

// ErrInvalidKey is returned by Sign for a private key of the wrong length.
var ErrInvalidKey = errors.New("invalid ed25519 private key")

// Sign produces the credential headers for a request signed by key at time at.
func Sign(key ed25519.PrivateKey, method, path string, body []byte, at time.Time) (Headers, error) {
	if len(key) != ed25519.PrivateKeySize {
		return Headers{}, fmt.Errorf("private key has %d bytes, want %d: %w", len(key), ed25519.PrivateKeySize, ErrInvalidKey)
	}

	ts := strconv.FormatInt(at.Unix(), 10)
	digest := Digest(method, path, ts, body)
	pub := key.Public().(ed25519.PublicKey)

	return Headers{
		Caller:    base58.Encode(pub),
		Timestamp: ts,
		Signature: base58.Encode(ed25519.Sign(key, digest[:])),
	}, nil
}

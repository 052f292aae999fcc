package httphandler

import (
	"errors"
	"io"
	"net/http"

	"github.com/ericfisherdev/agentmarket/internal/adapter/driven/signature"
	"github.com/ericfisherdev/agentmarket/internal/domain/model"
	"github.com/ericfisherdev/agentmarket/internal/domain/port/driven"
)

// maxBodyBytes bounds signed request bodies.
const maxBodyBytes = 64 << 10

// authenticate reads the request body and verifies the signed-request
// headers over it. On failure it writes the response and returns ok=false.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (caller model.Identity, body []byte, ok bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codeBadRequest, "request body too large")
			return model.Identity{}, nil, false
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, "unreadable request body")
		return model.Identity{}, nil, false
	}

	caller, err = h.verifier.Verify(r.Context(), driven.SignedRequest{
		Method:    r.Method,
		Path:      r.URL.Path,
		Body:      body,
		Caller:    r.Header.Get(signature.HeaderCaller),
		Timestamp: r.Header.Get(signature.HeaderTimestamp),
		Signature: r.Header.Get(signature.HeaderSignature),
	})
	if err != nil {
		h.logger.Warn("request signature rejected", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusUnauthorized, codeInvalidSignature, "invalid request signature")
		return model.Identity{}, nil, false
	}

	return caller, body, true
}

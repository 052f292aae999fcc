package httphandler

import (
	"net/http"

	"github.com/ericfisherdev/agentmarket/internal/domain/record"
)

// RequestAccess issues an unused access key for the service to the caller.
func (h *Handler) RequestAccess(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	caller, _, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	key, err := h.access.RequestAccess(r.Context(), caller, serviceID)
	if err != nil {
		h.writeDomainError(w, "request access", err)
		return
	}

	writeJSON(w, http.StatusCreated, toAccessKeyResponse(*key))
}

// GetAccessKey returns a single access key by ID.
func (h *Handler) GetAccessKey(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	key, err := h.access.GetKey(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "get access key", err)
		return
	}

	writeJSON(w, http.StatusOK, toAccessKeyResponse(*key))
}

// GetAccessKeyRecord returns the key in its fixed record layout.
func (h *Handler) GetAccessKeyRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	key, err := h.access.GetKey(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "get access key", err)
		return
	}

	data, err := record.EncodeAccessKey(*key)
	if err != nil {
		h.writeDomainError(w, "encode access key record", err)
		return
	}

	writeJSON(w, http.StatusOK, toRecordResponse(key.ID.String(), record.AccessKeySpace, data))
}

// RedeemAccessKey marks the key used. Only the requester or the service
// owner may redeem, and only once.
func (h *Handler) RedeemAccessKey(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	caller, _, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	key, err := h.access.MarkUsed(r.Context(), id, caller)
	if err != nil {
		h.writeDomainError(w, "redeem access key", err)
		return
	}

	writeJSON(w, http.StatusOK, toAccessKeyResponse(*key))
}

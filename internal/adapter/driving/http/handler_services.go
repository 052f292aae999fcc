package httphandler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/ericfisherdev/agentmarket/internal/application"
	"github.com/ericfisherdev/agentmarket/internal/domain/record"
)

// RegisterService creates a service owned by the verified caller.
func (h *Handler) RegisterService(w http.ResponseWriter, r *http.Request) {
	caller, body, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req RegisterServiceRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	svc, err := h.registry.Register(r.Context(), caller, application.RegisterRequest{
		Name:        req.Name,
		Description: req.Description,
		Endpoint:    req.Endpoint,
		Price:       req.Price,
	})
	if err != nil {
		h.writeDomainError(w, "register service", err)
		return
	}

	writeJSON(w, http.StatusCreated, toServiceResponse(*svc))
}

// ListServices returns all registered services.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.registry.List(r.Context())
	if err != nil {
		h.writeDomainError(w, "list services", err)
		return
	}

	writeJSON(w, http.StatusOK, toServiceResponses(services))
}

// GetService returns a single service by ID.
func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	svc, err := h.registry.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "get service", err)
		return
	}

	writeJSON(w, http.StatusOK, toServiceResponse(*svc))
}

// GetServiceRecord returns the service in its fixed record layout.
func (h *Handler) GetServiceRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	svc, err := h.registry.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "get service", err)
		return
	}

	data, err := record.EncodeService(*svc)
	if err != nil {
		h.writeDomainError(w, "encode service record", err)
		return
	}

	writeJSON(w, http.StatusOK, toRecordResponse(svc.ID.String(), record.ServiceSpace, data))
}

// InvokeService charges the caller the service price, paid to the claimed
// owner, provided the claim matches the stored owner.
func (h *Handler) InvokeService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	caller, body, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req InvokeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	inv, err := h.invocations.Invoke(r.Context(), id, caller, req.ClaimedOwner)
	if err != nil {
		h.writeDomainError(w, "invoke service", err)
		return
	}

	writeJSON(w, http.StatusOK, toInvocationResponse(*inv))
}

// ListInvocations returns the invocation log of a service, newest first.
func (h *Handler) ListInvocations(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if _, err := h.registry.Get(r.Context(), id); err != nil {
		h.writeDomainError(w, "get service", err)
		return
	}

	invocations, err := h.invocations.ListByService(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "list invocations", err)
		return
	}

	resp := make([]InvocationResponse, 0, len(invocations))
	for _, inv := range invocations {
		resp = append(resp, toInvocationResponse(inv))
	}

	writeJSON(w, http.StatusOK, resp)
}

// pathUUID parses a UUID path value, writing a 400 on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

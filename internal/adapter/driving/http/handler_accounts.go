package httphandler

import (
	"encoding/json"
	"net/http"

	"github.com/ericfisherdev/agentmarket/internal/domain/model"
)

// GetAccount returns an identity's balance with the services it owns and the
// access keys issued to it.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathIdentity(w, r)
	if !ok {
		return
	}

	ctx := r.Context()

	balance, err := h.accounts.Balance(ctx, id)
	if err != nil {
		h.writeDomainError(w, "get balance", err)
		return
	}

	services, err := h.registry.ListByOwner(ctx, id)
	if err != nil {
		h.writeDomainError(w, "list owned services", err)
		return
	}

	keys, err := h.access.ListByRequester(ctx, id)
	if err != nil {
		h.writeDomainError(w, "list access keys", err)
		return
	}

	writeJSON(w, http.StatusOK, AccountResponse{
		Identity:   id.String(),
		Balance:    balance,
		Services:   toServiceResponses(services),
		AccessKeys: toAccessKeyResponses(keys),
	})
}

// ListTransactions returns the settlements an identity paid or received,
// newest first.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathIdentity(w, r)
	if !ok {
		return
	}

	settlements, err := h.accounts.History(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, TransactionsResponse{
		Identity:     id.String(),
		Transactions: toSettlementResponses(id, settlements),
	})
}

// Airdrop credits test funds to an identity. Routed only when enabled.
func (h *Handler) Airdrop(w http.ResponseWriter, r *http.Request) {
	id, ok := pathIdentity(w, r)
	if !ok {
		return
	}

	caller, body, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req AirdropRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	balance, err := h.accounts.Airdrop(r.Context(), id, req.Amount)
	if err != nil {
		h.writeDomainError(w, "airdrop", err)
		return
	}

	h.logger.Info("airdrop requested", "caller", caller, "identity", id, "amount", req.Amount)
	writeJSON(w, http.StatusOK, AirdropResponse{Identity: id.String(), Balance: balance})
}

func pathIdentity(w http.ResponseWriter, r *http.Request) (model.Identity, bool) {
	id, err := model.ParseIdentity(r.PathValue("identity"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid identity")
		return model.Identity{}, false
	}
	return id, true
}

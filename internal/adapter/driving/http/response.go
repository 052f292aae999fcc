package httphandler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ericfisherdev/agentmarket/internal/domain/model"
)

// Error codes returned in errorResponse.Code.
const (
	codeUnauthorized      = "unauthorized"
	codeAlreadyUsed       = "already_used"
	codeInsufficientFunds = "insufficient_funds"
	codeCapacityExceeded  = "capacity_exceeded"
	codeNotFound          = "not_found"
	codeBalanceOverflow   = "balance_overflow"
	codeInvalidSignature  = "invalid_signature"
	codeBadRequest        = "bad_request"
	codeInternal          = "internal"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error","code":"internal"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code, code and message.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// errorStatus maps a domain error onto its HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusForbidden, codeUnauthorized
	case errors.Is(err, model.ErrAlreadyUsed):
		return http.StatusConflict, codeAlreadyUsed
	case errors.Is(err, model.ErrInsufficientFunds):
		return http.StatusPaymentRequired, codeInsufficientFunds
	case errors.Is(err, model.ErrCapacityExceeded):
		return http.StatusBadRequest, codeCapacityExceeded
	case errors.Is(err, model.ErrEmptyServiceName), errors.Is(err, model.ErrInvalidIdentity):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, model.ErrServiceNotFound), errors.Is(err, model.ErrAccessKeyNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, model.ErrBalanceOverflow):
		return http.StatusUnprocessableEntity, codeBalanceOverflow
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

// writeDomainError writes the mapped response for err. Unmapped errors are
// logged and reported without detail.
func (h *Handler) writeDomainError(w http.ResponseWriter, op string, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("failed to "+op, "error", err)
		writeError(w, status, code, "internal server error")
		return
	}
	writeError(w, status, code, err.Error())
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ServiceResponse is the JSON representation of a registered service.
type ServiceResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	DescriptionHTML string `json:"description_html"`
	Endpoint        string `json:"endpoint"`
	Price           uint64 `json:"price"`
	Owner           string `json:"owner"`
	CreatedAt       string `json:"created_at"`
}

// InvocationResponse is the JSON representation of one settled invocation.
type InvocationResponse struct {
	ID        string `json:"id"`
	ServiceID string `json:"service_id"`
	Caller    string `json:"caller"`
	Owner     string `json:"owner"`
	Amount    uint64 `json:"amount"`
	CreatedAt string `json:"created_at"`
}

// SettlementResponse is one entry of an identity's transaction history.
// Direction is "debit" when the identity paid, "credit" when it received and
// "self" when it was both payer and payee.
type SettlementResponse struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Direction string `json:"direction"`
	ServiceID string `json:"service_id"`
	Reference string `json:"reference"`
	Payer     string `json:"payer"`
	Payee     string `json:"payee"`
	Amount    uint64 `json:"amount"`
	CreatedAt string `json:"created_at"`
}

// TransactionsResponse is the transaction history of one identity.
type TransactionsResponse struct {
	Identity     string               `json:"identity"`
	Transactions []SettlementResponse `json:"transactions"`
}

// AccessKeyResponse is the JSON representation of an access key.
type AccessKeyResponse struct {
	ID          string  `json:"id"`
	ServiceID   string  `json:"service_id"`
	ServiceName string  `json:"service_name"`
	Requester   string  `json:"requester"`
	Price       uint64  `json:"price"`
	Used        bool    `json:"used"`
	CreatedAt   string  `json:"created_at"`
	UsedAt      *string `json:"used_at"`
}

// AccountResponse summarizes an identity's holdings.
type AccountResponse struct {
	Identity   string              `json:"identity"`
	Balance    uint64              `json:"balance"`
	Services   []ServiceResponse   `json:"services"`
	AccessKeys []AccessKeyResponse `json:"access_keys"`
}

// RecordResponse carries a fixed-layout record as base64.
type RecordResponse struct {
	ID    string `json:"id"`
	Space int    `json:"space"`
	Data  string `json:"data"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// RegisterServiceRequest is the JSON body for the register endpoint. The
// owner is the verified caller, never a body field.
type RegisterServiceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Endpoint    string `json:"endpoint"`
	Price       uint64 `json:"price"`
}

// InvokeRequest is the JSON body for the invoke endpoint.
type InvokeRequest struct {
	ClaimedOwner model.Identity `json:"claimed_owner"`
}

// AirdropRequest is the JSON body for the airdrop endpoint.
type AirdropRequest struct {
	Amount uint64 `json:"amount"`
}

// AirdropResponse reports the balance after an airdrop.
type AirdropResponse struct {
	Identity string `json:"identity"`
	Balance  uint64 `json:"balance"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// toServiceResponse converts a domain Service to its JSON representation.
func toServiceResponse(svc model.Service) ServiceResponse {
	return ServiceResponse{
		ID:              svc.ID.String(),
		Name:            svc.Name,
		Description:     svc.Description,
		DescriptionHTML: renderMarkdown(svc.Description),
		Endpoint:        svc.Endpoint,
		Price:           svc.Price,
		Owner:           svc.Owner.String(),
		CreatedAt:       formatTime(svc.CreatedAt),
	}
}

func toServiceResponses(services []model.Service) []ServiceResponse {
	resp := make([]ServiceResponse, 0, len(services))
	for _, svc := range services {
		resp = append(resp, toServiceResponse(svc))
	}
	return resp
}

// toInvocationResponse converts a domain Invocation to its JSON representation.
func toInvocationResponse(inv model.Invocation) InvocationResponse {
	return InvocationResponse{
		ID:        inv.ID.String(),
		ServiceID: inv.ServiceID.String(),
		Caller:    inv.Caller.String(),
		Owner:     inv.Owner.String(),
		Amount:    inv.Amount,
		CreatedAt: formatTime(inv.CreatedAt),
	}
}

// toSettlementResponses converts settlements as seen from party.
func toSettlementResponses(party model.Identity, settlements []model.Settlement) []SettlementResponse {
	out := make([]SettlementResponse, 0, len(settlements))
	for _, s := range settlements {
		direction := "credit"
		switch {
		case s.Payer == party && s.Payee == party:
			direction = "self"
		case s.Payer == party:
			direction = "debit"
		}
		out = append(out, SettlementResponse{
			ID:        s.ID.String(),
			Kind:      string(s.Kind),
			Direction: direction,
			ServiceID: s.ServiceID.String(),
			Reference: s.Reference.String(),
			Payer:     s.Payer.String(),
			Payee:     s.Payee.String(),
			Amount:    s.Amount,
			CreatedAt: formatTime(s.CreatedAt),
		})
	}
	return out
}

// toAccessKeyResponse converts a domain AccessKey to its JSON representation.
func toAccessKeyResponse(key model.AccessKey) AccessKeyResponse {
	resp := AccessKeyResponse{
		ID:          key.ID.String(),
		ServiceID:   key.ServiceID.String(),
		ServiceName: key.ServiceName,
		Requester:   key.Requester.String(),
		Price:       key.Price,
		Used:        key.Used,
		CreatedAt:   formatTime(key.CreatedAt),
	}
	if key.UsedAt != nil {
		usedAt := formatTime(*key.UsedAt)
		resp.UsedAt = &usedAt
	}
	return resp
}

func toAccessKeyResponses(keys []model.AccessKey) []AccessKeyResponse {
	resp := make([]AccessKeyResponse, 0, len(keys))
	for _, key := range keys {
		resp = append(resp, toAccessKeyResponse(key))
	}
	return resp
}

func toRecordResponse(id string, space int, data []byte) RecordResponse {
	return RecordResponse{
		ID:    id,
		Space: space,
		Data:  base64.StdEncoding.EncodeToString(data),
	}
}

package httphandler_test

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/agentmarket/internal/adapter/driven/signature"
	httphandler "github.com/ericfisherdev/agentmarket/internal/adapter/driving/http"
	"github.com/ericfisherdev/agentmarket/internal/application"
	"github.com/ericfisherdev/agentmarket/internal/domain/model"
	"github.com/ericfisherdev/agentmarket/internal/domain/port/driven"
	"github.com/ericfisherdev/agentmarket/internal/domain/record"
)

// --- Mock implementations ---

// mockStore is a map-backed Transactor and store set. Units of work are
// serialized but never rolled back.
type mockStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	services    map[uuid.UUID]model.Service
	keys        map[uuid.UUID]model.AccessKey
	balances    map[model.Identity]uint64
	invocations []model.Invocation
	settlements []model.Settlement
}

func newMockStore() *mockStore {
	return &mockStore{
		services: make(map[uuid.UUID]model.Service),
		keys:     make(map[uuid.UUID]model.AccessKey),
		balances: make(map[model.Identity]uint64),
	}
}

func (m *mockStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx driven.Tx) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, m)
}

func (m *mockStore) Services() driven.ServiceStore { return mockServices{m} }
func (m *mockStore) AccessKeys() driven.AccessKeyStore { return mockKeys{m} }
func (m *mockStore) Ledger() driven.LedgerStore { return mockLedger{m} }
func (m *mockStore) Invocations() driven.InvocationStore { return mockInvocations{m} }
func (m *mockStore) Settlements() driven.SettlementStore { return mockSettlements{m} }

type mockServices struct{ m *mockStore }

func (s mockServices) Create(_ context.Context, svc model.Service) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.services[svc.ID] = svc
	return nil
}

func (s mockServices) GetByID(_ context.Context, id uuid.UUID) (*model.Service, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	svc, ok := s.m.services[id]
	if !ok {
		return nil, nil
	}
	return &svc, nil
}

func (s mockServices) ListAll(_ context.Context) ([]model.Service, error) {
	return s.filter(func(model.Service) bool { return true }), nil
}

func (s mockServices) ListByOwner(_ context.Context, owner model.Identity) ([]model.Service, error) {
	return s.filter(func(svc model.Service) bool { return svc.Owner == owner }), nil
}

func (s mockServices) filter(keep func(model.Service) bool) []model.Service {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []model.Service
	for _, svc := range s.m.services {
		if keep(svc) {
			out = append(out, svc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

type mockKeys struct{ m *mockStore }

func (k mockKeys) Create(_ context.Context, key model.AccessKey) error {
	k.m.mu.Lock()
	defer k.m.mu.Unlock()
	k.m.keys[key.ID] = key
	return nil
}

func (k mockKeys) GetByID(_ context.Context, id uuid.UUID) (*model.AccessKey, error) {
	k.m.mu.Lock()
	defer k.m.mu.Unlock()
	key, ok := k.m.keys[id]
	if !ok {
		return nil, nil
	}
	return &key, nil
}

func (k mockKeys) MarkUsed(_ context.Context, id uuid.UUID, usedAt time.Time) error {
	k.m.mu.Lock()
	defer k.m.mu.Unlock()
	key, ok := k.m.keys[id]
	if !ok {
		return model.ErrAccessKeyNotFound
	}
	if key.Used {
		return model.ErrAlreadyUsed
	}
	key.Used = true
	key.UsedAt = &usedAt
	k.m.keys[id] = key
	return nil
}

func (k mockKeys) ListByRequester(_ context.Context, requester model.Identity) ([]model.AccessKey, error) {
	k.m.mu.Lock()
	defer k.m.mu.Unlock()
	var out []model.AccessKey
	for _, key := range k.m.keys {
		if key.Requester == requester {
			out = append(out, key)
		}
	}
	return out, nil
}

type mockLedger struct{ m *mockStore }

func (l mockLedger) Balance(_ context.Context, id model.Identity) (uint64, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return l.m.balances[id], nil
}

func (l mockLedger) Transfer(_ context.Context, from, to model.Identity, amount uint64) error {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	if l.m.balances[from] < amount {
		return model.ErrInsufficientFunds
	}
	if from == to {
		return nil
	}
	if l.m.balances[to] > math.MaxUint64-amount {
		return model.ErrBalanceOverflow
	}
	l.m.balances[from] -= amount
	l.m.balances[to] += amount
	return nil
}

func (l mockLedger) Credit(_ context.Context, id model.Identity, amount uint64) (uint64, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	if l.m.balances[id] > math.MaxUint64-amount {
		return 0, model.ErrBalanceOverflow
	}
	l.m.balances[id] += amount
	return l.m.balances[id], nil
}

type mockInvocations struct{ m *mockStore }

func (i mockInvocations) Append(_ context.Context, inv model.Invocation) error {
	i.m.mu.Lock()
	defer i.m.mu.Unlock()
	i.m.invocations = append(i.m.invocations, inv)
	return nil
}

func (i mockInvocations) ListByService(_ context.Context, serviceID uuid.UUID) ([]model.Invocation, error) {
	i.m.mu.Lock()
	defer i.m.mu.Unlock()
	var out []model.Invocation
	for j := len(i.m.invocations) - 1; j >= 0; j-- {
		if i.m.invocations[j].ServiceID == serviceID {
			out = append(out, i.m.invocations[j])
		}
	}
	return out, nil
}

type mockSettlements struct{ m *mockStore }

func (s mockSettlements) Record(_ context.Context, st model.Settlement) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.settlements = append(s.m.settlements, st)
	return nil
}

func (s mockSettlements) ListByParty(_ context.Context, id model.Identity) ([]model.Settlement, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []model.Settlement
	for j := len(s.m.settlements) - 1; j >= 0; j-- {
		if st := s.m.settlements[j]; st.Payer == id || st.Payee == id {
			out = append(out, st)
		}
	}
	return out, nil
}

type nopPublisher struct{}

func (nopPublisher) PublishAccessRequested(context.Context, model.AccessRequested) error { return nil }

// --- Helpers ---

type party struct {
	key ed25519.PrivateKey
	id  model.Identity
}

func newParty(t *testing.T) party {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	id, err := model.IdentityFromPublicKey(pub)
	require.NoError(t, err)
	return party{key: priv, id: id}
}

type testEnv struct {
	store *mockStore
	mux   http.Handler
}

func setupEnv(airdrop bool) *testEnv {
	store := newMockStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := httphandler.NewHandler(
		application.NewRegistryService(store, store.Services()),
		application.NewInvocationService(store, store.Invocations()),
		application.NewAccessService(store, store.AccessKeys(), nopPublisher{}),
		application.NewAccountService(store, store.Ledger(), store.Settlements()),
		signature.NewVerifier(time.Minute),
		airdrop,
		logger,
	)
	return &testEnv{store: store, mux: httphandler.NewServeMux(h, logger)}
}

func (e *testEnv) do(t *testing.T, method, path string, body []byte, signer *party) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if signer != nil {
		h, err := signature.Sign(signer.key, method, path, body, time.Now())
		require.NoError(t, err)
		req.Header.Set(signature.HeaderCaller, h.Caller)
		req.Header.Set(signature.HeaderTimestamp, h.Timestamp)
		req.Header.Set(signature.HeaderSignature, h.Signature)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, owner party, name string, price uint64) httphandler.ServiceResponse {
	t.Helper()
	body, err := json.Marshal(httphandler.RegisterServiceRequest{Name: name, Description: "Echoes **input**", Endpoint: "https://echo.example.com", Price: price})
	require.NoError(t, err)

	rec := e.do(t, http.MethodPost, "/api/v1/services", body, &owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var svc httphandler.ServiceResponse
	decodeJSON(t, rec, &svc)
	return svc
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	decodeJSON(t, rec, &body)
	assert.NotEmpty(t, body.Error)
	return body.Code
}

// --- Tests ---

func TestRegisterService(t *testing.T) {
	env := setupEnv(false)
	alice := newParty(t)

	svc := env.register(t, alice, "Echo", 10)

	assert.Equal(t, "Echo", svc.Name)
	assert.Equal(t, uint64(10), svc.Price)
	assert.Equal(t, alice.id.String(), svc.Owner)
	assert.Contains(t, svc.DescriptionHTML, "<strong>input</strong>")
}

func TestRegisterService_Unsigned(t *testing.T) {
	env := setupEnv(false)

	rec := env.do(t, http.MethodPost, "/api/v1/services", []byte(`{"name":"Echo","price":10}`), nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_signature", errorCode(t, rec))
	assert.Empty(t, env.store.services)
}

func TestRegisterService_Validation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"name too long", `{"name":"` + strings.Repeat("n", 65) + `","price":1}`, "capacity_exceeded"},
		{"empty name", `{"name":"","price":1}`, "bad_request"},
		{"malformed json", `{"name":`, "bad_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupEnv(false)
			alice := newParty(t)

			rec := env.do(t, http.MethodPost, "/api/v1/services", []byte(tt.body), &alice)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, rec))
			assert.Empty(t, env.store.services)
		})
	}
}

func TestGetService(t *testing.T) {
	env := setupEnv(false)
	alice := newParty(t)
	svc := env.register(t, alice, "Echo", 10)

	rec := env.do(t, http.MethodGet, "/api/v1/services/"+svc.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got httphandler.ServiceResponse
	decodeJSON(t, rec, &got)
	assert.Equal(t, svc.ID, got.ID)

	rec = env.do(t, http.MethodGet, "/api/v1/services/"+uuid.NewString(), nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec))

	rec = env.do(t, http.MethodGet, "/api/v1/services/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListServices(t *testing.T) {
	env := setupEnv(false)

	rec := env.do(t, http.MethodGet, "/api/v1/services", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	env.register(t, newParty(t), "Echo", 10)
	rec = env.do(t, http.MethodGet, "/api/v1/services", nil, nil)
	var services []httphandler.ServiceResponse
	decodeJSON(t, rec, &services)
	assert.Len(t, services, 1)
}

func TestGetServiceRecord(t *testing.T) {
	env := setupEnv(false)
	alice := newParty(t)
	svc := env.register(t, alice, "Echo", 10)

	rec := env.do(t, http.MethodGet, "/api/v1/services/"+svc.ID+"/record", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp httphandler.RecordResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, record.ServiceSpace, resp.Space)

	data, err := base64.StdEncoding.DecodeString(resp.Data)
	require.NoError(t, err)
	decoded, err := record.DecodeService(data)
	require.NoError(t, err)
	assert.Equal(t, "Echo", decoded.Name)
	assert.Equal(t, alice.id, decoded.Owner)
}

func invokeBody(t *testing.T, owner model.Identity) []byte {
	t.Helper()
	body, err := json.Marshal(httphandler.InvokeRequest{ClaimedOwner: owner})
	require.NoError(t, err)
	return body
}

// Echo scenario: Alice registers Echo at 10, Bob holds 100 and invokes it.
func TestInvokeService_Echo(t *testing.T) {
	env := setupEnv(false)
	alice, bob, carol := newParty(t), newParty(t), newParty(t)
	svc := env.register(t, alice, "Echo", 10)
	env.store.balances[bob.id] = 100

	path := "/api/v1/services/" + svc.ID + "/invoke"

	rec := env.do(t, http.MethodPost, path, invokeBody(t, alice.id), &bob)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, uint64(90), env.store.balances[bob.id])
	assert.Equal(t, uint64(10), env.store.balances[alice.id])

	rec = env.do(t, http.MethodPost, path, invokeBody(t, carol.id), &bob)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "unauthorized", errorCode(t, rec))
	assert.Equal(t, uint64(90), env.store.balances[bob.id])
	assert.Equal(t, uint64(0), env.store.balances[carol.id])

	rec = env.do(t, http.MethodPost, path, invokeBody(t, alice.id), &carol)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "insufficient_funds", errorCode(t, rec))

	rec = env.do(t, http.MethodGet, "/api/v1/services/"+svc.ID+"/invocations", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var invocations []httphandler.InvocationResponse
	decodeJSON(t, rec, &invocations)
	require.Len(t, invocations, 1)
	assert.Equal(t, bob.id.String(), invocations[0].Caller)
}

func TestInvokeService_TamperedBody(t *testing.T) {
	env := setupEnv(false)
	alice, bob := newParty(t), newParty(t)
	svc := env.register(t, alice, "Echo", 10)
	env.store.balances[bob.id] = 100

	path := "/api/v1/services/" + svc.ID + "/invoke"
	signed, err := signature.Sign(bob.key, http.MethodPost, path, invokeBody(t, alice.id), time.Now())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(invokeBody(t, bob.id)))
	req.Header.Set(signature.HeaderCaller, signed.Caller)
	req.Header.Set(signature.HeaderTimestamp, signed.Timestamp)
	req.Header.Set(signature.HeaderSignature, signed.Signature)
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, uint64(100), env.store.balances[bob.id])
}

// Key scenario: Bob requests access to Echo, redeems once, second redeem fails.
func TestAccessKeyLifecycle(t *testing.T) {
	env := setupEnv(false)
	alice, bob, carol := newParty(t), newParty(t), newParty(t)
	svc := env.register(t, alice, "Echo", 10)
	env.store.balances[bob.id] = 100

	rec := env.do(t, http.MethodPost, "/api/v1/services/"+svc.ID+"/access-keys", nil, &bob)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var key httphandler.AccessKeyResponse
	decodeJSON(t, rec, &key)
	assert.Equal(t, "Echo", key.ServiceName)
	assert.Equal(t, bob.id.String(), key.Requester)
	assert.False(t, key.Used)
	assert.Nil(t, key.UsedAt)

	redeemPath := "/api/v1/access-keys/" + key.ID + "/redeem"

	rec = env.do(t, http.MethodPost, redeemPath, nil, &carol)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, redeemPath, nil, &bob)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var redeemed httphandler.AccessKeyResponse
	decodeJSON(t, rec, &redeemed)
	assert.True(t, redeemed.Used)
	assert.NotNil(t, redeemed.UsedAt)
	assert.Equal(t, uint64(90), env.store.balances[bob.id])
	assert.Equal(t, uint64(10), env.store.balances[alice.id])

	rec = env.do(t, http.MethodPost, redeemPath, nil, &bob)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_used", errorCode(t, rec))
	assert.Equal(t, uint64(90), env.store.balances[bob.id])

	rec = env.do(t, http.MethodGet, "/api/v1/access-keys/"+key.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got httphandler.AccessKeyResponse
	decodeJSON(t, rec, &got)
	assert.True(t, got.Used)

	rec = env.do(t, http.MethodGet, "/api/v1/access-keys/"+key.ID+"/record", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp httphandler.RecordResponse
	decodeJSON(t, rec, &resp)
	data, err := base64.StdEncoding.DecodeString(resp.Data)
	require.NoError(t, err)
	decoded, err := record.DecodeAccessKey(data)
	require.NoError(t, err)
	assert.True(t, decoded.Used)
	assert.Equal(t, bob.id, decoded.Requester)
}

func TestRequestAccess_UnknownService(t *testing.T) {
	env := setupEnv(false)
	bob := newParty(t)

	rec := env.do(t, http.MethodPost, "/api/v1/services/"+uuid.NewString()+"/access-keys", nil, &bob)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, env.store.keys)
}

func TestRedeem_UnknownKey(t *testing.T) {
	env := setupEnv(false)
	bob := newParty(t)

	rec := env.do(t, http.MethodPost, "/api/v1/access-keys/"+uuid.NewString()+"/redeem", nil, &bob)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec))
}

func TestGetAccount(t *testing.T) {
	env := setupEnv(false)
	alice := newParty(t)
	env.register(t, alice, "Echo", 10)
	env.store.balances[alice.id] = 7

	rec := env.do(t, http.MethodGet, "/api/v1/accounts/"+alice.id.String(), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var acct httphandler.AccountResponse
	decodeJSON(t, rec, &acct)
	assert.Equal(t, uint64(7), acct.Balance)
	assert.Len(t, acct.Services, 1)
	assert.Empty(t, acct.AccessKeys)

	rec = env.do(t, http.MethodGet, "/api/v1/accounts/not-base58!", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListTransactions(t *testing.T) {
	env := setupEnv(false)
	alice, bob, carol := newParty(t), newParty(t), newParty(t)
	svc := env.register(t, alice, "Echo", 10)
	env.store.balances[bob.id] = 100

	rec := env.do(t, http.MethodPost, "/api/v1/services/"+svc.ID+"/invoke", invokeBody(t, alice.id), &bob)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/v1/services/"+svc.ID+"/access-keys", nil, &bob)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var key httphandler.AccessKeyResponse
	decodeJSON(t, rec, &key)

	rec = env.do(t, http.MethodPost, "/api/v1/access-keys/"+key.ID+"/redeem", nil, &alice)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/v1/accounts/"+bob.id.String()+"/transactions", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var bobTx httphandler.TransactionsResponse
	decodeJSON(t, rec, &bobTx)
	assert.Equal(t, bob.id.String(), bobTx.Identity)
	require.Len(t, bobTx.Transactions, 2)
	assert.Equal(t, "redeem", bobTx.Transactions[0].Kind)
	assert.Equal(t, key.ID, bobTx.Transactions[0].Reference)
	assert.Equal(t, "invoke", bobTx.Transactions[1].Kind)
	for _, tx := range bobTx.Transactions {
		assert.Equal(t, "debit", tx.Direction)
		assert.Equal(t, alice.id.String(), tx.Payee)
		assert.Equal(t, uint64(10), tx.Amount)
		assert.Equal(t, svc.ID, tx.ServiceID)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/accounts/"+alice.id.String()+"/transactions", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var aliceTx httphandler.TransactionsResponse
	decodeJSON(t, rec, &aliceTx)
	require.Len(t, aliceTx.Transactions, 2)
	assert.Equal(t, "credit", aliceTx.Transactions[0].Direction)

	rec = env.do(t, http.MethodGet, "/api/v1/accounts/"+carol.id.String()+"/transactions", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"identity":"`+carol.id.String()+`","transactions":[]}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/v1/accounts/not-base58!/transactions", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAirdrop(t *testing.T) {
	bob := newParty(t)
	path := "/api/v1/accounts/" + bob.id.String() + "/airdrop"

	t.Run("disabled", func(t *testing.T) {
		env := setupEnv(false)
		rec := env.do(t, http.MethodPost, path, []byte(`{"amount":100}`), &bob)
		assert.NotEqual(t, http.StatusOK, rec.Code)
		assert.Equal(t, uint64(0), env.store.balances[bob.id])
	})

	t.Run("enabled", func(t *testing.T) {
		env := setupEnv(true)
		rec := env.do(t, http.MethodPost, path, []byte(`{"amount":100}`), &bob)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp httphandler.AirdropResponse
		decodeJSON(t, rec, &resp)
		assert.Equal(t, uint64(100), resp.Balance)
	})

	t.Run("overflow", func(t *testing.T) {
		env := setupEnv(true)
		env.store.balances[bob.id] = math.MaxUint64
		rec := env.do(t, http.MethodPost, path, []byte(`{"amount":1}`), &bob)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "balance_overflow", errorCode(t, rec))
	})
}

func TestHealth(t *testing.T) {
	env := setupEnv(false)

	rec := env.do(t, http.MethodGet, "/api/v1/health", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp httphandler.HealthResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "ok", resp.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupEnv(false)
	env.register(t, newParty(t), "Echo", 10)

	rec := env.do(t, http.MethodGet, "/metrics", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "marketplace_registry_registrations_total")
}

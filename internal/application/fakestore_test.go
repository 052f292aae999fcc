package application

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/agentmarket/internal/domain/model"
	"github.com/ericfisherdev/agentmarket/internal/domain/port/driven"
)

// --- In-memory transactional store ---

// memState is the full store contents. WithinTx runs against a clone and
// swaps it in only when the unit succeeds.
type memState struct {
	services    map[uuid.UUID]model.Service
	keys        map[uuid.UUID]model.AccessKey
	balances    map[model.Identity]uint64
	invocations []model.Invocation
	settlements []model.Settlement
}

func (s *memState) clone() *memState {
	return &memState{
		services:    maps.Clone(s.services),
		keys:        maps.Clone(s.keys),
		balances:    maps.Clone(s.balances),
		invocations: append([]model.Invocation(nil), s.invocations...),
		settlements: append([]model.Settlement(nil), s.settlements...),
	}
}

type memStore struct {
	mu    sync.Mutex
	state *memState

	// failCreate, when set, is returned by the next ServiceStore.Create.
	failCreate error
}

var (
	_ driven.Transactor      = (*memStore)(nil)
	_ driven.ServiceStore    = (*memServices)(nil)
	_ driven.AccessKeyStore  = (*memKeys)(nil)
	_ driven.LedgerStore     = (*memLedger)(nil)
	_ driven.InvocationStore = (*memInvocations)(nil)
	_ driven.SettlementStore = (*memSettlements)(nil)
)

func newMemStore() *memStore {
	return &memStore{state: &memState{
		services: make(map[uuid.UUID]model.Service),
		keys:     make(map[uuid.UUID]model.AccessKey),
		balances: make(map[model.Identity]uint64),
	}}
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx driven.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	working := m.state.clone()
	if err := fn(ctx, &memTx{store: m, state: working}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.state = working
	return nil
}

// view returns stores over a snapshot of the committed state, standing in
// for the reader-pool repos.
func (m *memStore) view() *memTx {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &memTx{store: m, state: m.state.clone()}
}

// Read-side stores: each call sees the latest commit.

type readServices struct{ m *memStore }

func (r readServices) Create(_ context.Context, _ model.Service) error {
	return errors.New("read-only store")
}
func (r readServices) GetByID(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	return r.m.view().Services().GetByID(ctx, id)
}
func (r readServices) ListAll(ctx context.Context) ([]model.Service, error) {
	return r.m.view().Services().ListAll(ctx)
}
func (r readServices) ListByOwner(ctx context.Context, owner model.Identity) ([]model.Service, error) {
	return r.m.view().Services().ListByOwner(ctx, owner)
}

type readKeys struct{ m *memStore }

func (r readKeys) Create(_ context.Context, _ model.AccessKey) error {
	return errors.New("read-only store")
}
func (r readKeys) GetByID(ctx context.Context, id uuid.UUID) (*model.AccessKey, error) {
	return r.m.view().AccessKeys().GetByID(ctx, id)
}
func (r readKeys) MarkUsed(_ context.Context, _ uuid.UUID, _ time.Time) error {
	return errors.New("read-only store")
}
func (r readKeys) ListByRequester(ctx context.Context, requester model.Identity) ([]model.AccessKey, error) {
	return r.m.view().AccessKeys().ListByRequester(ctx, requester)
}

type readLedger struct{ m *memStore }

func (r readLedger) Balance(ctx context.Context, id model.Identity) (uint64, error) {
	return r.m.view().Ledger().Balance(ctx, id)
}
func (r readLedger) Transfer(_ context.Context, _, _ model.Identity, _ uint64) error {
	return errors.New("read-only store")
}
func (r readLedger) Credit(_ context.Context, _ model.Identity, _ uint64) (uint64, error) {
	return 0, errors.New("read-only store")
}

type readInvocations struct{ m *memStore }

func (r readInvocations) Append(_ context.Context, _ model.Invocation) error {
	return errors.New("read-only store")
}
func (r readInvocations) ListByService(ctx context.Context, serviceID uuid.UUID) ([]model.Invocation, error) {
	return r.m.view().Invocations().ListByService(ctx, serviceID)
}

type readSettlements struct{ m *memStore }

func (r readSettlements) Record(_ context.Context, _ model.Settlement) error {
	return errors.New("read-only store")
}
func (r readSettlements) ListByParty(ctx context.Context, id model.Identity) ([]model.Settlement, error) {
	return r.m.view().Settlements().ListByParty(ctx, id)
}

func (m *memStore) balance(id model.Identity) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.balances[id]
}

func (m *memStore) fund(id model.Identity, amount uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.balances[id] += amount
}

func (m *memStore) snapshotBalances() map[model.Identity]uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.state.balances)
}

type memTx struct {
	store *memStore
	state *memState
}

func (t *memTx) Services() driven.ServiceStore { return &memServices{tx: t} }

func (t *memTx) AccessKeys() driven.AccessKeyStore { return &memKeys{state: t.state} }

func (t *memTx) Ledger() driven.LedgerStore { return &memLedger{state: t.state} }

func (t *memTx) Invocations() driven.InvocationStore { return &memInvocations{state: t.state} }

func (t *memTx) Settlements() driven.SettlementStore { return &memSettlements{state: t.state} }

type memServices struct{ tx *memTx }

func (s *memServices) Create(_ context.Context, svc model.Service) error {
	if err := s.tx.store.failCreate; err != nil {
		s.tx.store.failCreate = nil
		return err
	}
	if _, ok := s.tx.state.services[svc.ID]; ok {
		return errors.New("duplicate service id")
	}
	s.tx.state.services[svc.ID] = svc
	return nil
}

func (s *memServices) GetByID(_ context.Context, id uuid.UUID) (*model.Service, error) {
	svc, ok := s.tx.state.services[id]
	if !ok {
		return nil, nil
	}
	return &svc, nil
}

func (s *memServices) ListAll(_ context.Context) ([]model.Service, error) {
	var out []model.Service
	for _, svc := range s.tx.state.services {
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memServices) ListByOwner(ctx context.Context, owner model.Identity) ([]model.Service, error) {
	all, _ := s.ListAll(ctx)
	var out []model.Service
	for _, svc := range all {
		if svc.Owner == owner {
			out = append(out, svc)
		}
	}
	return out, nil
}

type memKeys struct{ state *memState }

func (k *memKeys) Create(_ context.Context, key model.AccessKey) error {
	k.state.keys[key.ID] = key
	return nil
}

func (k *memKeys) GetByID(_ context.Context, id uuid.UUID) (*model.AccessKey, error) {
	key, ok := k.state.keys[id]
	if !ok {
		return nil, nil
	}
	return &key, nil
}

func (k *memKeys) MarkUsed(_ context.Context, id uuid.UUID, usedAt time.Time) error {
	key, ok := k.state.keys[id]
	if !ok {
		return model.ErrAccessKeyNotFound
	}
	if key.Used {
		return model.ErrAlreadyUsed
	}
	key.Used = true
	key.UsedAt = &usedAt
	k.state.keys[id] = key
	return nil
}

func (k *memKeys) ListByRequester(_ context.Context, requester model.Identity) ([]model.AccessKey, error) {
	var out []model.AccessKey
	for _, key := range k.state.keys {
		if key.Requester == requester {
			out = append(out, key)
		}
	}
	return out, nil
}

type memLedger struct{ state *memState }

func (l *memLedger) Balance(_ context.Context, id model.Identity) (uint64, error) {
	return l.state.balances[id], nil
}

func (l *memLedger) Transfer(_ context.Context, from, to model.Identity, amount uint64) error {
	if l.state.balances[from] < amount {
		return model.ErrInsufficientFunds
	}
	l.state.balances[from] -= amount
	if l.state.balances[to]+amount < l.state.balances[to] {
		return model.ErrBalanceOverflow
	}
	l.state.balances[to] += amount
	return nil
}

func (l *memLedger) Credit(_ context.Context, id model.Identity, amount uint64) (uint64, error) {
	if l.state.balances[id]+amount < l.state.balances[id] {
		return 0, model.ErrBalanceOverflow
	}
	l.state.balances[id] += amount
	return l.state.balances[id], nil
}

type memInvocations struct{ state *memState }

func (i *memInvocations) Append(_ context.Context, inv model.Invocation) error {
	i.state.invocations = append(i.state.invocations, inv)
	return nil
}

func (i *memInvocations) ListByService(_ context.Context, serviceID uuid.UUID) ([]model.Invocation, error) {
	var out []model.Invocation
	for j := len(i.state.invocations) - 1; j >= 0; j-- {
		if i.state.invocations[j].ServiceID == serviceID {
			out = append(out, i.state.invocations[j])
		}
	}
	return out, nil
}

type memSettlements struct{ state *memState }

func (m *memSettlements) Record(_ context.Context, s model.Settlement) error {
	m.state.settlements = append(m.state.settlements, s)
	return nil
}

func (m *memSettlements) ListByParty(_ context.Context, id model.Identity) ([]model.Settlement, error) {
	var out []model.Settlement
	for j := len(m.state.settlements) - 1; j >= 0; j-- {
		if s := m.state.settlements[j]; s.Payer == id || s.Payee == id {
			out = append(out, s)
		}
	}
	return out, nil
}

// --- Event publisher fake ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.AccessRequested
	err    error
}

func (p *recordingPublisher) PublishAccessRequested(_ context.Context, evt model.AccessRequested) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

// --- Identities ---

func identity(b byte) model.Identity {
	var id model.Identity
	for i := range id {
		id[i] = b
	}
	return id
}

var (
	alice = identity(0xA1)
	bob   = identity(0xB0)
	carol = identity(0xC0)
)

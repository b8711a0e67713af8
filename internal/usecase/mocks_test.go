//go:build !integration

package usecase_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"phonepe-relay/internal/domain"
	"phonepe-relay/internal/domain/model"
	"phonepe-relay/internal/domain/ports/adapter"
	"phonepe-relay/internal/domain/ports/repository"
)

// =============================
// Repositories
// =============================

// memTxnRepo is an in-memory TransactionRepository keyed by merchant transaction id.
type memTxnRepo struct {
	mu        sync.RWMutex
	store     map[string]*model.Transaction
	nextID    int64
	createErr error
	updateErr error
	updates   int
}

func newMemTxnRepo() *memTxnRepo {
	return &memTxnRepo{store: make(map[string]*model.Transaction)}
}

var _ repository.TransactionRepository = (*memTxnRepo)(nil)

func (m *memTxnRepo) Create(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[t.MerchantTransactionID]; ok {
		return domain.ErrAlreadyExists
	}
	m.nextID++
	t.ID = m.nextID
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	m.store[t.MerchantTransactionID] = &cp
	return nil
}

func (m *memTxnRepo) FindByMerchantTransactionID(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTxnRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.TransactionStatus) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.updates++
	t.Status = status
	t.UpdatedAt = time.Now()
	return nil
}

func (m *memTxnRepo) ListStale(ctx context.Context, tx repository.Tx, statuses []model.TransactionStatus, olderThan time.Time, limit int) ([]*model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Transaction
	for _, t := range m.store {
		for _, s := range statuses {
			if t.Status == s && t.CreatedAt.Before(olderThan) {
				cp := *t
				out = append(out, &cp)
			}
		}
	}
	return out, nil
}

func (m *memTxnRepo) status(id string) model.TransactionStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.store[id]; ok {
		return t.Status
	}
	return ""
}

func (m *memTxnRepo) count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}

// memRefundRepo is an in-memory RefundRepository.
type memRefundRepo struct {
	mu        sync.RWMutex
	store     map[int64]*model.Refund
	nextID    int64
	createErr error
	updateErr error
}

func newMemRefundRepo() *memRefundRepo {
	return &memRefundRepo{store: make(map[int64]*model.Refund)}
}

var _ repository.RefundRepository = (*memRefundRepo)(nil)

func (m *memRefundRepo) Create(ctx context.Context, tx repository.Tx, r *model.Refund) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = m.nextID
	cp := *r
	m.store[r.ID] = &cp
	return nil
}

func (m *memRefundRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Refund, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRefundRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id int64, status model.RefundStatus, providerStatus string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.Status = status
	r.ProviderStatus = providerStatus
	return nil
}

// memAuditRepo collects appended entries.
type memAuditRepo struct {
	mu        sync.Mutex
	entries   []model.AuditLog
	appendErr error
}

var _ repository.AuditLogRepository = (*memAuditRepo)(nil)

func (m *memAuditRepo) Append(ctx context.Context, e *model.AuditLog) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memAuditRepo) byAction(action string) []model.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.AuditLog
	for _, e := range m.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

// =============================
// Adapters
// =============================

// MockPaymentGateway records calls; each method can be overridden.
type MockPaymentGateway struct {
	mu    sync.Mutex
	calls map[string]int

	PayFunc           func(ctx context.Context, req adapter.PayRequest) (*adapter.ProviderResponse, error)
	PaymentStatusFunc func(ctx context.Context, id string) (*adapter.ProviderResponse, error)
	RefundFunc        func(ctx context.Context, req adapter.RefundRequest) (*adapter.ProviderResponse, error)
	RefundStatusFunc  func(ctx context.Context, id string) (*adapter.ProviderResponse, error)

	LastPay    adapter.PayRequest
	LastRefund adapter.RefundRequest
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (m *MockPaymentGateway) hit(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[name]++
}

func (m *MockPaymentGateway) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockPaymentGateway) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func (m *MockPaymentGateway) Name() string { return "mockpay" }

func (m *MockPaymentGateway) Pay(ctx context.Context, req adapter.PayRequest) (*adapter.ProviderResponse, error) {
	m.hit("pay")
	m.LastPay = req
	if m.PayFunc != nil {
		return m.PayFunc(ctx, req)
	}
	return providerResponse(`{"success":true,"code":"PAYMENT_INITIATED","data":{"instrumentResponse":{"redirectInfo":{"url":"https://pay.example/`+req.MerchantTransactionID+`"}}}}`,
		"PAYMENT_INITIATED", "https://pay.example/"+req.MerchantTransactionID, ""), nil
}

func (m *MockPaymentGateway) PaymentStatus(ctx context.Context, id string) (*adapter.ProviderResponse, error) {
	m.hit("status")
	if m.PaymentStatusFunc != nil {
		return m.PaymentStatusFunc(ctx, id)
	}
	return statusResponse(model.CodePaymentSuccess), nil
}

func (m *MockPaymentGateway) Refund(ctx context.Context, req adapter.RefundRequest) (*adapter.ProviderResponse, error) {
	m.hit("refund")
	m.LastRefund = req
	if m.RefundFunc != nil {
		return m.RefundFunc(ctx, req)
	}
	return providerResponse(`{"success":true,"code":"PAYMENT_PENDING","data":{"state":"PENDING"}}`, "PAYMENT_PENDING", "", "PENDING"), nil
}

func (m *MockPaymentGateway) RefundStatus(ctx context.Context, id string) (*adapter.ProviderResponse, error) {
	m.hit("refund_status")
	if m.RefundStatusFunc != nil {
		return m.RefundStatusFunc(ctx, id)
	}
	return providerResponse(`{"success":true,"code":"PAYMENT_SUCCESS","data":{"state":"COMPLETED"}}`, "PAYMENT_SUCCESS", "", "COMPLETED"), nil
}

func providerResponse(raw, code, redirect, state string) *adapter.ProviderResponse {
	return &adapter.ProviderResponse{Code: code, RedirectURL: redirect, State: state, Raw: json.RawMessage(raw)}
}

func statusResponse(code string) *adapter.ProviderResponse {
	return providerResponse(`{"success":true,"code":"`+code+`","data":{}}`, code, "", "")
}

// recordingPublisher keeps published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []adapter.PaymentEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, ev adapter.PaymentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

// =============================
// Plumbing
// =============================

// MockTxManager runs fn immediately with NoTX unless WithTxFunc is set.
type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// inlineQueue runs tasks synchronously so audit effects are visible at once.
type inlineQueue struct {
	mu      sync.Mutex
	full    bool
	stopped bool
}

func (q *inlineQueue) Submit(task func(ctx context.Context) error) error {
	q.mu.Lock()
	full := q.full
	q.mu.Unlock()
	if full {
		return errQueueFull
	}
	return task(context.Background())
}

func (q *inlineQueue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stopped = true
}

type queueError string

func (e queueError) Error() string { return string(e) }

const errQueueFull = queueError("queue full")

// sequentialIDs hands out MT0001, MT0002, ...
type sequentialIDs struct {
	mu sync.Mutex
	n  int
}

func (s *sequentialIDs) NewMerchantTransactionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("MT%04d", s.n)
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

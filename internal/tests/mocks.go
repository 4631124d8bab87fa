package tests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"rental/internal/domain"
	"rental/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK VEHICLE REPOSITORY
// ──────────────────────────────────────────────

// MockVehicleRepository is a mock implementation of VehicleRepository.
type MockVehicleRepository struct {
	mu       sync.RWMutex
	vehicles map[string]*domain.Vehicle

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockVehicleRepository creates a new mock vehicle repository.
func NewMockVehicleRepository() *MockVehicleRepository {
	return &MockVehicleRepository{
		vehicles: make(map[string]*domain.Vehicle),
	}
}

// AddVehicle adds a vehicle to the mock repository.
func (m *MockVehicleRepository) AddVehicle(vehicle *domain.Vehicle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[vehicle.ID] = vehicle
}

func (m *MockVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[vehicle.ID] = vehicle
	return nil
}

func (m *MockVehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vehicle, ok := m.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *vehicle
	return &copy, nil
}

func (m *MockVehicleRepository) GetAll(ctx context.Context) ([]*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Vehicle, 0, len(m.vehicles))
	for _, v := range m.vehicles {
		copy := *v
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockVehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vehicles[vehicle.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *vehicle
	m.vehicles[vehicle.ID] = &copy
	return nil
}

// ──────────────────────────────────────────────
// MOCK ORDER REPOSITORY
// ──────────────────────────────────────────────

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError      error
	UpdateError      error
	GetBlockingError error
}

// NewMockOrderRepository creates a new mock order repository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]*domain.Order),
	}
}

// AddOrder adds an order to the mock repository.
func (m *MockOrderRepository) AddOrder(order *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
}

// GetOrder returns the stored order for test assertions.
func (m *MockOrderRepository) GetOrder(id string) *domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.orders[id]
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *order
	m.orders[order.ID] = &copy
	return nil
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *order
	return &copy, nil
}

func (m *MockOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *order
	m.orders[order.ID] = &copy
	return nil
}

func (m *MockOrderRepository) GetByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	return m.filter(func(o *domain.Order) bool {
		return o.Status == status
	})
}

func (m *MockOrderRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	return m.filter(func(o *domain.Order) bool {
		return o.UserID == userID
	})
}

func (m *MockOrderRepository) GetBlockingByVehicleID(ctx context.Context, vehicleID string) ([]*domain.Order, error) {
	if m.GetBlockingError != nil {
		return nil, m.GetBlockingError
	}
	return m.filter(func(o *domain.Order) bool {
		return o.VehicleID == vehicleID && o.Status.IsBlocking()
	})
}

func (m *MockOrderRepository) GetPendingStartingBefore(ctx context.Context, deadline time.Time) ([]*domain.Order, error) {
	return m.filter(func(o *domain.Order) bool {
		return o.Status == domain.OrderStatusPending && o.RentalStart.Before(deadline)
	})
}

func (m *MockOrderRepository) GetOverdue(ctx context.Context, now time.Time) ([]*domain.Order, error) {
	return m.filter(func(o *domain.Order) bool {
		return o.Status.IsBlocking() && o.RentalEnd.Before(now) && o.OverdueNotifiedAt.IsZero()
	})
}

func (m *MockOrderRepository) MarkOverdueNotified(ctx context.Context, orderID string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if !order.OverdueNotifiedAt.IsZero() {
		return false, nil
	}
	order.OverdueNotifiedAt = at
	return true, nil
}

func (m *MockOrderRepository) GetReminderDue(ctx context.Context, from, until time.Time) ([]*domain.Order, error) {
	return m.filter(func(o *domain.Order) bool {
		return o.Status == domain.OrderStatusConfirmed &&
			!o.RentalStart.Before(from) && o.RentalStart.Before(until) &&
			o.ReminderSentAt.IsZero()
	})
}

func (m *MockOrderRepository) MarkReminderSent(ctx context.Context, orderID string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if !order.ReminderSentAt.IsZero() {
		return false, nil
	}
	order.ReminderSentAt = at
	return true, nil
}

func (m *MockOrderRepository) filter(keep func(*domain.Order) bool) ([]*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Order
	for _, o := range m.orders {
		if keep(o) {
			copy := *o
			result = append(result, &copy)
		}
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK REJECTION REPOSITORY
// ──────────────────────────────────────────────

// MockRejectionRepository is a mock implementation of RejectionRepository.
type MockRejectionRepository struct {
	mu         sync.RWMutex
	rejections map[string]*domain.OrderRejection

	CreateCallCount int32
	CreateError     error
}

// NewMockRejectionRepository creates a new mock rejection repository.
func NewMockRejectionRepository() *MockRejectionRepository {
	return &MockRejectionRepository{
		rejections: make(map[string]*domain.OrderRejection),
	}
}

func (m *MockRejectionRepository) Create(ctx context.Context, rejection *domain.OrderRejection) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *rejection
	m.rejections[rejection.OrderID] = &copy
	return nil
}

func (m *MockRejectionRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.OrderRejection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rejection, ok := m.rejections[orderID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *rejection
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment

	CreateCallCount int32
	CreateError     error
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]*domain.Payment),
	}
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *payment
	m.payments[payment.ID] = &copy
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payment, ok := m.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *payment
	return &copy, nil
}

func (m *MockPaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.IdempotencyKey == key {
			copy := *p
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	payment.Status = status
	return nil
}

// ──────────────────────────────────────────────
// MOCK TRANSACTION MANAGER
// ──────────────────────────────────────────────

// MockTxManager is a mock implementation of TxManager backed by the in-memory
// repositories. A mutex serializes WithinTx calls, mirroring the row lock the
// real implementation takes on the vehicle.
type MockTxManager struct {
	mu         sync.Mutex
	Orders     *MockOrderRepository
	Rejections *MockRejectionRepository

	WithinTxCallCount int32

	// BeginError aborts WithinTx before fn runs.
	BeginError error
}

// NewMockTxManager creates a new mock transaction manager.
func NewMockTxManager(orders *MockOrderRepository, rejections *MockRejectionRepository) *MockTxManager {
	return &MockTxManager{
		Orders:     orders,
		Rejections: rejections,
	}
}

func (m *MockTxManager) WithinTx(ctx context.Context, fn func(tx repository.OrderTx) error) error {
	atomic.AddInt32(&m.WithinTxCallCount, 1)
	if m.BeginError != nil {
		return m.BeginError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(&mockOrderTx{orders: m.Orders, rejections: m.Rejections})
}

type mockOrderTx struct {
	orders     *MockOrderRepository
	rejections *MockRejectionRepository
}

func (t *mockOrderTx) Orders() repository.OrderRepository         { return t.orders }
func (t *mockOrderTx) Rejections() repository.RejectionRepository { return t.rejections }

func (t *mockOrderTx) LockVehicle(ctx context.Context, vehicleID string) error {
	// Serialization is provided by the manager's mutex.
	return nil
}

// ──────────────────────────────────────────────
// FAILING PAYMENT PROVIDER
// ──────────────────────────────────────────────

// FailingPaymentProvider always fails to open a checkout.
type FailingPaymentProvider struct {
	CallCount int32
}

func (p *FailingPaymentProvider) CreateCheckout(ctx context.Context, userID string, amount float64, orderID string) (string, error) {
	atomic.AddInt32(&p.CallCount, 1)
	return "", errors.New("provider unreachable")
}

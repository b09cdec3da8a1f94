package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"grocery-market/internal/domain"
	"grocery-market/internal/events"
	"grocery-market/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var errStoreUnavailable = errors.New("store unavailable")

// memState is an in-memory stand-in for the database. A transaction holds the
// mutex for its whole duration and restores a snapshot on failure.
type memState struct {
	mu       sync.Mutex
	users    map[uuid.UUID]domain.User
	products map[uuid.UUID]domain.Product
	orders   map[uuid.UUID]domain.Order
	items    map[uuid.UUID][]domain.OrderItem

	// failCreateItem makes the nth CreateItem call (1-based) fail
	failCreateItem int
	createItemCall int

	// increments records IncrementStock calls in call order
	increments []uuid.UUID
}

type mockStore struct {
	state *memState
	inTx  bool
}

func newMockStore() *mockStore {
	return &mockStore{state: &memState{
		users:    make(map[uuid.UUID]domain.User),
		products: make(map[uuid.UUID]domain.Product),
		orders:   make(map[uuid.UUID]domain.Order),
		items:    make(map[uuid.UUID][]domain.OrderItem),
	}}
}

func (s *mockStore) Users() repository.UserRepository       { return &mockUserRepository{s} }
func (s *mockStore) Products() repository.ProductRepository { return &mockProductRepository{s} }
func (s *mockStore) Orders() repository.OrderRepository     { return &mockOrderRepository{s} }

func (s *mockStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	snap := s.state.snapshot()
	if err := fn(&mockStore{state: s.state, inTx: true}); err != nil {
		s.state.restore(snap)
		return err
	}
	return nil
}

func (s *mockStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.state.mu.Lock()
	return s.state.mu.Unlock
}

type memSnapshot struct {
	users    map[uuid.UUID]domain.User
	products map[uuid.UUID]domain.Product
	orders   map[uuid.UUID]domain.Order
	items    map[uuid.UUID][]domain.OrderItem
}

func (m *memState) snapshot() memSnapshot {
	snap := memSnapshot{
		users:    make(map[uuid.UUID]domain.User, len(m.users)),
		products: make(map[uuid.UUID]domain.Product, len(m.products)),
		orders:   make(map[uuid.UUID]domain.Order, len(m.orders)),
		items:    make(map[uuid.UUID][]domain.OrderItem, len(m.items)),
	}
	for k, v := range m.users {
		snap.users[k] = v
	}
	for k, v := range m.products {
		snap.products[k] = v
	}
	for k, v := range m.orders {
		snap.orders[k] = v
	}
	for k, v := range m.items {
		snap.items[k] = append([]domain.OrderItem(nil), v...)
	}
	return snap
}

func (m *memState) restore(snap memSnapshot) {
	m.users = snap.users
	m.products = snap.products
	m.orders = snap.orders
	m.items = snap.items
}

// seeding helpers

func (s *mockStore) addUser(role domain.Role) domain.User {
	now := time.Now().UTC()
	user := domain.User{
		ID:        uuid.New(),
		Role:      role,
		Email:     uuid.NewString() + "@example.com",
		FullName:  "Test " + string(role),
		Phone:     "+55 11 99999-0000",
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.state.users[user.ID] = user
	return user
}

func (s *mockStore) addProduct(sellerID uuid.UUID, name, price string, stock int) domain.Product {
	now := time.Now().UTC()
	product := domain.Product{
		ID:            uuid.New(),
		SellerID:      sellerID,
		Name:          name,
		Price:         decimal.RequireFromString(price),
		Category:      domain.CategoryFruits,
		Origin:        "Brazil",
		StockQuantity: stock,
		Unit:          domain.UnitKilogram,
		Images:        []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.state.products[product.ID] = product
	return product
}

func (s *mockStore) stockOf(id uuid.UUID) int {
	defer s.lock()()
	return s.state.products[id].StockQuantity
}

func (s *mockStore) orderCount() int {
	defer s.lock()()
	return len(s.state.orders)
}

func (s *mockStore) itemCount() int {
	defer s.lock()()
	n := 0
	for _, items := range s.state.items {
		n += len(items)
	}
	return n
}

func (s *mockStore) incrementedProducts() []uuid.UUID {
	defer s.lock()()
	return append([]uuid.UUID(nil), s.state.increments...)
}

type mockUserRepository struct{ s *mockStore }

func (r *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	defer r.s.lock()()
	for _, u := range r.s.state.users {
		if u.Email == user.Email {
			return repository.ErrUserAlreadyExists
		}
	}
	r.s.state.users[user.ID] = *user
	return nil
}

func (r *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	defer r.s.lock()()
	if _, ok := r.s.state.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	for id, u := range r.s.state.users {
		if id != user.ID && u.Email == user.Email {
			return repository.ErrUserAlreadyExists
		}
	}
	updated := *user
	updated.Role = r.s.state.users[user.ID].Role
	r.s.state.users[user.ID] = updated
	return nil
}

func (r *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	defer r.s.lock()()
	user, ok := r.s.state.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &user, nil
}

func (r *mockUserRepository) FindByIDAndRole(ctx context.Context, id uuid.UUID, role domain.Role) (*domain.User, error) {
	defer r.s.lock()()
	user, ok := r.s.state.users[id]
	if !ok || user.Role != role {
		return nil, repository.ErrUserNotFound
	}
	return &user, nil
}

func (r *mockUserRepository) List(ctx context.Context, filter repository.UserFilter) ([]*domain.User, int, error) {
	defer r.s.lock()()
	users := []*domain.User{}
	for _, u := range r.s.state.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		u := u
		users = append(users, &u)
	}
	return users, len(users), nil
}

type mockProductRepository struct{ s *mockStore }

func (r *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	defer r.s.lock()()
	r.s.state.products[product.ID] = *product
	return nil
}

func (r *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	defer r.s.lock()()
	current, ok := r.s.state.products[product.ID]
	if !ok || current.SellerID != product.SellerID {
		return repository.ErrProductNotFound
	}
	r.s.state.products[product.ID] = *product
	return nil
}

func (r *mockProductRepository) Delete(ctx context.Context, id, sellerID uuid.UUID) error {
	defer r.s.lock()()
	current, ok := r.s.state.products[id]
	if !ok || current.SellerID != sellerID {
		return repository.ErrProductNotFound
	}
	for _, items := range r.s.state.items {
		for _, item := range items {
			if item.ProductID == id {
				return repository.ErrProductInUse
			}
		}
	}
	delete(r.s.state.products, id)
	return nil
}

func (r *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	defer r.s.lock()()
	product, ok := r.s.state.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &product, nil
}

func (r *mockProductRepository) LockByIDForSeller(ctx context.Context, id, sellerID uuid.UUID) (*domain.Product, error) {
	defer r.s.lock()()
	product, ok := r.s.state.products[id]
	if !ok || product.SellerID != sellerID {
		return nil, repository.ErrProductNotFound
	}
	return &product, nil
}

func (r *mockProductRepository) LockForSeller(ctx context.Context, sellerID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	defer r.s.lock()()
	out := make(map[uuid.UUID]*domain.Product, len(ids))
	for _, id := range ids {
		product, ok := r.s.state.products[id]
		if ok && product.SellerID == sellerID {
			out[id] = &product
		}
	}
	return out, nil
}

func (r *mockProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	defer r.s.lock()()
	product, ok := r.s.state.products[id]
	if !ok || product.StockQuantity < quantity {
		return repository.ErrStockConflict
	}
	product.StockQuantity -= quantity
	r.s.state.products[id] = product
	return nil
}

func (r *mockProductRepository) IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	defer r.s.lock()()
	product, ok := r.s.state.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	product.StockQuantity += quantity
	r.s.state.products[id] = product
	r.s.state.increments = append(r.s.state.increments, id)
	return nil
}

func (r *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	defer r.s.lock()()
	products := []*domain.Product{}
	for _, p := range r.s.state.products {
		if filter.SellerID != nil && p.SellerID != *filter.SellerID {
			continue
		}
		p := p
		products = append(products, &p)
	}
	return products, len(products), nil
}

type mockOrderRepository struct{ s *mockStore }

func (r *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	defer r.s.lock()()
	stored := *order
	stored.Items = nil
	r.s.state.orders[order.ID] = stored
	return nil
}

func (r *mockOrderRepository) CreateItem(ctx context.Context, item *domain.OrderItem) error {
	defer r.s.lock()()
	r.s.state.createItemCall++
	if r.s.state.failCreateItem > 0 && r.s.state.createItemCall == r.s.state.failCreateItem {
		return errStoreUnavailable
	}
	r.s.state.items[item.OrderID] = append(r.s.state.items[item.OrderID], *item)
	return nil
}

func (r *mockOrderRepository) load(id uuid.UUID) (*domain.Order, bool) {
	order, ok := r.s.state.orders[id]
	if !ok {
		return nil, false
	}
	items := append([]domain.OrderItem{}, r.s.state.items[id]...)
	sort.Slice(items, func(i, j int) bool { return items[i].LineNo < items[j].LineNo })
	order.Items = items
	return &order, true
}

func (r *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	defer r.s.lock()()
	order, ok := r.load(id)
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (r *mockOrderRepository) LockForSeller(ctx context.Context, id, sellerID uuid.UUID) (*domain.Order, error) {
	defer r.s.lock()()
	order, ok := r.load(id)
	if !ok || order.SellerID != sellerID {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (r *mockOrderRepository) FindItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	defer r.s.lock()()
	order, ok := r.load(orderID)
	if !ok {
		return []domain.OrderItem{}, nil
	}
	return order.Items, nil
}

func (r *mockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, updatedAt time.Time) error {
	defer r.s.lock()()
	order, ok := r.s.state.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	order.Status = status
	order.UpdatedAt = updatedAt
	r.s.state.orders[id] = order
	return nil
}

func (r *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, int, error) {
	defer r.s.lock()()
	orders := []*domain.Order{}
	for _, o := range r.s.state.orders {
		if filter.CustomerID != nil && o.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.SellerID != nil && o.SellerID != *filter.SellerID {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		o := o
		orders = append(orders, &o)
	}
	return orders, len(orders), nil
}

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
	err    error
}

func (p *recordingPublisher) PublishOrderEvent(ctx context.Context, event events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) published() []events.OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.OrderEvent(nil), p.events...)
}

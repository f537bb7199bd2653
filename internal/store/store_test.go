package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"artastic/internal/apperr"
	"artastic/internal/events"
	"artastic/internal/models"
	"artastic/internal/notify"
	"artastic/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mocks ---

type MockPieceRepository struct{ mock.Mock }

func (m *MockPieceRepository) GetAll(ctx context.Context) ([]models.Piece, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Piece), args.Error(1)
}
func (m *MockPieceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Piece, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Piece), args.Error(1)
}
func (m *MockPieceRepository) Create(ctx context.Context, piece *models.Piece) error {
	return m.Called(ctx, piece).Error(0)
}
func (m *MockPieceRepository) Update(ctx context.Context, id uuid.UUID, patch models.PiecePatch) (*models.Piece, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Piece), args.Error(1)
}
func (m *MockPieceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockFilamentRepository struct{ mock.Mock }

func (m *MockFilamentRepository) GetAll(ctx context.Context) ([]models.Filament, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Filament), args.Error(1)
}
func (m *MockFilamentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Filament, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Filament), args.Error(1)
}
func (m *MockFilamentRepository) Create(ctx context.Context, filament *models.Filament) error {
	return m.Called(ctx, filament).Error(0)
}
func (m *MockFilamentRepository) Update(ctx context.Context, id uuid.UUID, patch models.FilamentPatch) (*models.Filament, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Filament), args.Error(1)
}
func (m *MockFilamentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockClientRepository struct{ mock.Mock }

func (m *MockClientRepository) GetAll(ctx context.Context) ([]models.Client, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Client), args.Error(1)
}
func (m *MockClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}
func (m *MockClientRepository) Create(ctx context.Context, client *models.Client) error {
	return m.Called(ctx, client).Error(0)
}
func (m *MockClientRepository) Update(ctx context.Context, id uuid.UUID, patch models.ClientPatch) (*models.Client, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}
func (m *MockClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) GetAll(ctx context.Context) ([]models.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}
func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}
func (m *MockOrderRepository) Create(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	return m.Called(ctx, order, items).Error(0)
}
func (m *MockOrderRepository) Update(ctx context.Context, id uuid.UUID, patch models.OrderPatch) (*models.Order, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}
func (m *MockOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type recorder struct {
	mu            sync.Mutex
	notifications []notify.Notification
	events        []events.Event
}

func (r *recorder) Notify(_ context.Context, n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) last() notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.notifications[len(r.notifications)-1]
}

func (r *recorder) topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Topic())
	}
	return out
}

type fixture struct {
	store     *Store
	pieces    *MockPieceRepository
	filaments *MockFilamentRepository
	clients   *MockClientRepository
	orders    *MockOrderRepository
	rec       *recorder
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		pieces:    new(MockPieceRepository),
		filaments: new(MockFilamentRepository),
		clients:   new(MockClientRepository),
		orders:    new(MockOrderRepository),
		rec:       &recorder{},
	}
	gw := &repository.Gateway{Pieces: f.pieces, Filaments: f.filaments, Clients: f.clients, Orders: f.orders}
	f.store = New(gw, f.rec, f.rec, zap.NewNop())
	t.Cleanup(f.store.Close)
	return f
}

func vase() models.Piece {
	return models.Piece{
		ID:             uuid.New(),
		Name:           "Vase",
		Stock:          3,
		WholesalePrice: decimal.NewFromInt(15),
		RetailPrice:    decimal.NewFromInt(25),
	}
}

var errDown = errors.New("connection refused")

// --- Tests ---

func TestFetchPieces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := vase()

	f.pieces.On("GetAll", mock.Anything).Return([]models.Piece{p}, nil).Once()

	require.NoError(t, f.store.FetchPieces(ctx))
	snap := f.store.Snapshot()
	assert.Equal(t, []models.Piece{p}, snap.Pieces)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Error)
	assert.Empty(t, f.rec.topics(), "fetches are not published")
	f.pieces.AssertExpectations(t)
}

func TestFetchFailureKeepsCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := vase()

	f.pieces.On("GetAll", mock.Anything).Return([]models.Piece{p}, nil).Once()
	require.NoError(t, f.store.FetchPieces(ctx))

	f.pieces.On("GetAll", mock.Anything).Return(nil, errDown).Once()
	err := f.store.FetchPieces(ctx)
	assert.ErrorIs(t, err, errDown)

	snap := f.store.Snapshot()
	assert.Equal(t, []models.Piece{p}, snap.Pieces)
	assert.Equal(t, "Error al cargar las piezas", snap.Error)
	assert.False(t, snap.Loading)
	assert.Equal(t, notify.LevelError, f.rec.last().Level)
}

func TestCreatePiece(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := uuid.New()

	f.pieces.On("Create", mock.Anything, mock.AnythingOfType("*models.Piece")).
		Run(func(args mock.Arguments) { args.Get(1).(*models.Piece).ID = id }).
		Return(nil).Once()

	p := vase()
	p.ID = uuid.Nil
	created, err := f.store.CreatePiece(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, id, created.ID)

	snap := f.store.Snapshot()
	require.Len(t, snap.Pieces, 1)
	assert.Equal(t, id, snap.Pieces[0].ID)
	assert.Equal(t, "Pieza añadida correctamente", f.rec.last().Message)
	assert.Equal(t, []string{"artastic.piece.created"}, f.rec.topics())
}

func TestCreatePieceInvalidSkipsGateway(t *testing.T) {
	f := newFixture(t)
	before := f.store.Snapshot()

	_, err := f.store.CreatePiece(context.Background(), models.Piece{Name: ""})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	f.pieces.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Equal(t, before.Version, f.store.Snapshot().Version)
}

func TestUpdatePieceValidatesAgainstCache(t *testing.T) {
	f := newFixture(t)
	p := vase()
	f.store.Dispatch(PiecesLoaded{Pieces: []models.Piece{p}})

	negative := -1
	_, err := f.store.UpdatePiece(context.Background(), p.ID, models.PiecePatch{Stock: &negative})
	require.Error(t, err)
	f.pieces.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateUncachedRowsValidatesPatchedFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty := ""
	price := decimal.NewFromInt(-5)
	_, err := f.store.UpdatePiece(ctx, uuid.New(), models.PiecePatch{Name: &empty, RetailPrice: &price})
	require.Error(t, err)
	fields := apperr.Fields(err)
	require.Len(t, fields, 2)
	assert.Equal(t, "name", fields[0].Field)
	assert.Equal(t, "retail_price", fields[1].Field)

	_, err = f.store.UpdateFilament(ctx, uuid.New(), models.FilamentPatch{Color: &empty})
	assert.True(t, apperr.IsValidation(err))

	email := "not-an-email"
	_, err = f.store.UpdateClient(ctx, uuid.New(), models.ClientPatch{Email: &email})
	assert.True(t, apperr.IsValidation(err))

	items := []models.OrderItem{{Quantity: 0, PricePerUnit: decimal.NewFromInt(10)}}
	_, err = f.store.UpdateOrder(ctx, uuid.New(), models.OrderPatch{Items: &items})
	assert.True(t, apperr.IsValidation(err))

	f.pieces.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	f.filaments.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	f.clients.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.store.Snapshot().Error)
}

func TestUpdateUncachedOrderWithValidPatchReachesGateway(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	deposit := decimal.NewNullDecimal(decimal.NewFromInt(50))
	patch := models.OrderPatch{Deposit: &deposit}
	f.orders.On("Update", mock.Anything, id, patch).
		Return(&models.Order{ID: id, Status: models.OrderPending, TotalPrice: decimal.NewFromInt(80), Deposit: deposit}, nil).Once()

	updated, err := f.store.UpdateOrder(context.Background(), id, patch)
	require.NoError(t, err)
	assert.Equal(t, id, updated.ID)
	f.orders.AssertExpectations(t)
}

func TestUpdatePieceReplacesInPlace(t *testing.T) {
	f := newFixture(t)
	a, b := vase(), vase()
	b.Name = "Bowl"
	f.store.Dispatch(PiecesLoaded{Pieces: []models.Piece{a, b}})

	name := "Tall vase"
	fresh := a
	fresh.Name = name
	f.pieces.On("Update", mock.Anything, a.ID, models.PiecePatch{Name: &name}).Return(&fresh, nil).Once()

	_, err := f.store.UpdatePiece(context.Background(), a.ID, models.PiecePatch{Name: &name})
	require.NoError(t, err)

	snap := f.store.Snapshot()
	require.Len(t, snap.Pieces, 2)
	assert.Equal(t, "Tall vase", snap.Pieces[0].Name)
	assert.Equal(t, "Bowl", snap.Pieces[1].Name)
}

func TestDeleteClientMissingRow(t *testing.T) {
	f := newFixture(t)
	c := models.Client{ID: uuid.New(), Name: "Ana"}
	f.store.Dispatch(ClientsLoaded{Clients: []models.Client{c}})

	missing := &apperr.WriteError{Entity: "client", Op: "delete", Err: apperr.ErrNoRows}
	f.clients.On("Delete", mock.Anything, c.ID).Return(missing).Once()

	err := f.store.DeleteClient(context.Background(), c.ID)
	assert.ErrorIs(t, err, apperr.ErrNoRows)

	snap := f.store.Snapshot()
	assert.Len(t, snap.Clients, 1)
	assert.Equal(t, "Error al eliminar el cliente", snap.Error)
}

func TestDeleteFilament(t *testing.T) {
	f := newFixture(t)
	fil := models.Filament{ID: uuid.New(), Type: "PLA", Color: "Rojo", Stock: 1000}
	f.store.Dispatch(FilamentsLoaded{Filaments: []models.Filament{fil}})
	f.filaments.On("Delete", mock.Anything, fil.ID).Return(nil).Once()

	require.NoError(t, f.store.DeleteFilament(context.Background(), fil.ID))
	assert.Empty(t, f.store.Snapshot().Filaments)
	assert.Equal(t, []string{"artastic.filament.deleted"}, f.rec.topics())
}

func TestCreateOrderPrepends(t *testing.T) {
	f := newFixture(t)
	older := models.Order{ID: uuid.New(), Status: models.OrderPending, Description: "old"}
	f.store.Dispatch(OrdersLoaded{Orders: []models.Order{older}})

	p := vase()
	items := []models.OrderItem{{PieceID: p.ID, Quantity: 2, PricePerUnit: decimal.NewFromInt(25)}}
	order := models.Order{ClientName: "Ana", Status: models.OrderPending, OrderType: models.OrderStandard, TotalPrice: decimal.NewFromInt(50)}
	newID := uuid.New()
	f.orders.On("Create", mock.Anything, mock.AnythingOfType("*models.Order"), items).
		Run(func(args mock.Arguments) {
			o := args.Get(1).(*models.Order)
			o.ID = newID
			o.Items = items
		}).
		Return(nil).Once()

	created, err := f.store.CreateOrder(context.Background(), order, items)
	require.NoError(t, err)
	assert.Equal(t, newID, created.ID)

	snap := f.store.Snapshot()
	require.Len(t, snap.Orders, 2)
	assert.Equal(t, newID, snap.Orders[0].ID)
	assert.Equal(t, older.ID, snap.Orders[1].ID)
}

func TestCreateOrderRejectsDepositAboveTotal(t *testing.T) {
	f := newFixture(t)
	order := models.Order{
		Status:      models.OrderPending,
		Description: "Custom figure",
		TotalPrice:  decimal.NewFromInt(10),
		Deposit:     decimal.NewNullDecimal(decimal.NewFromInt(20)),
	}

	_, err := f.store.CreateOrder(context.Background(), order, nil)
	require.Error(t, err)
	fields := apperr.Fields(err)
	require.Len(t, fields, 1)
	assert.Equal(t, "deposit", fields[0].Field)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordQuickSale(t *testing.T) {
	f := newFixture(t)
	p := vase()
	f.store.Dispatch(PiecesLoaded{Pieces: []models.Piece{p}})

	order := models.Order{Status: models.OrderDelivered, OrderType: models.OrderQuickSale, Description: "Venta rápida: Vase", TotalPrice: decimal.NewFromInt(50)}
	item := models.OrderItem{PieceID: p.ID, Quantity: 2, PricePerUnit: decimal.NewFromInt(25)}
	orderID := uuid.New()

	f.orders.On("Create", mock.Anything, mock.AnythingOfType("*models.Order"), mock.Anything).
		Run(func(args mock.Arguments) { args.Get(1).(*models.Order).ID = orderID }).
		Return(nil).Once()
	f.pieces.On("GetByID", mock.Anything, p.ID).Return(&p, nil).Once()
	after := p
	after.Stock = 1
	f.pieces.On("Update", mock.Anything, p.ID, mock.MatchedBy(func(patch models.PiecePatch) bool {
		return patch.Stock != nil && *patch.Stock == 1
	})).Return(&after, nil).Once()

	before := f.store.Snapshot().Version
	created, piece, err := f.store.RecordQuickSale(context.Background(), order, item)
	require.NoError(t, err)
	assert.Equal(t, orderID, created.ID)
	assert.Equal(t, 1, piece.Stock)

	snap := f.store.Snapshot()
	require.Len(t, snap.Orders, 1)
	assert.Equal(t, orderID, snap.Orders[0].ID)
	assert.Equal(t, 1, snap.Pieces[0].Stock)
	// Begin, the batch, End.
	assert.Equal(t, before+3, snap.Version)
	assert.Equal(t, "Venta registrada correctamente", f.rec.last().Message)
	assert.Equal(t, []string{"artastic.quick_sale.completed"}, f.rec.topics())
	f.orders.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestRecordQuickSaleCompensatesOnStockFailure(t *testing.T) {
	f := newFixture(t)
	p := vase()
	f.store.Dispatch(PiecesLoaded{Pieces: []models.Piece{p}})

	order := models.Order{Status: models.OrderDelivered, OrderType: models.OrderQuickSale, Description: "Venta rápida: Vase", TotalPrice: decimal.NewFromInt(25)}
	item := models.OrderItem{PieceID: p.ID, Quantity: 1, PricePerUnit: decimal.NewFromInt(25)}
	orderID := uuid.New()

	f.orders.On("Create", mock.Anything, mock.AnythingOfType("*models.Order"), mock.Anything).
		Run(func(args mock.Arguments) { args.Get(1).(*models.Order).ID = orderID }).
		Return(nil).Once()
	f.pieces.On("GetByID", mock.Anything, p.ID).Return(&p, nil).Once()
	f.pieces.On("Update", mock.Anything, p.ID, mock.Anything).Return(nil, errDown).Once()
	f.orders.On("Delete", mock.Anything, orderID).Return(nil).Once()

	_, _, err := f.store.RecordQuickSale(context.Background(), order, item)
	require.Error(t, err)
	assert.ErrorIs(t, err, errDown)

	snap := f.store.Snapshot()
	assert.Empty(t, snap.Orders)
	assert.Equal(t, 3, snap.Pieces[0].Stock)
	assert.Equal(t, "Error al procesar la venta", snap.Error)
	assert.Empty(t, f.rec.topics())
	f.orders.AssertExpectations(t)
}

func TestLoadAllJoinsFailures(t *testing.T) {
	f := newFixture(t)
	f.pieces.On("GetAll", mock.Anything).Return([]models.Piece{}, nil).Once()
	f.filaments.On("GetAll", mock.Anything).Return(nil, errDown).Once()
	f.clients.On("GetAll", mock.Anything).Return([]models.Client{}, nil).Once()
	f.orders.On("GetAll", mock.Anything).Return([]models.Order{}, nil).Once()

	err := f.store.LoadAll(context.Background())
	assert.ErrorIs(t, err, errDown)
	snap := f.store.Snapshot()
	assert.Equal(t, "Error al cargar los filamentos", snap.Error)
	assert.False(t, snap.Loading)
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	f := newFixture(t)
	ch, cancel := f.store.Subscribe()

	f.store.Dispatch(Fail{Message: "boom"})
	select {
	case snap := <-ch:
		assert.Equal(t, "boom", snap.Error)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}

	f.store.ClearError()
	cancel()
	for range ch {
	}
	assert.Empty(t, f.store.Snapshot().Error)
}

func TestSlowSubscriberKeepsLatest(t *testing.T) {
	f := newFixture(t)
	ch, cancel := f.store.Subscribe()
	defer cancel()

	var last Snapshot
	for i := 0; i < 20; i++ {
		last = f.store.Dispatch(Begin{})
	}

	var got Snapshot
	for len(ch) > 0 {
		got = <-ch
	}
	assert.Equal(t, last.Version, got.Version)
}

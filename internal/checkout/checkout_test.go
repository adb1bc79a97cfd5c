package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velora_back_end/internal/models"
)

// --- Fakes en mémoire ---

type fakeCatalog struct {
	products map[string]models.Product
}

func (f *fakeCatalog) GetProduct(_ context.Context, id string) (models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return models.Product{}, ErrProductGone
	}
	return p, nil
}

type fakeCarts struct {
	items   map[string][]models.CartItem
	cleared []string
}

func (f *fakeCarts) Get(_ context.Context, userID string) ([]models.CartItem, error) {
	return f.items[userID], nil
}

func (f *fakeCarts) Clear(_ context.Context, userID string) error {
	delete(f.items, userID)
	f.cleared = append(f.cleared, userID)
	return nil
}

type fakeOrders struct {
	inserted  []models.Order
	insertErr error
}

func (f *fakeOrders) Insert(_ context.Context, o models.Order) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, o)
	return nil
}

type fakeStock struct {
	levels map[string]int
}

func (f *fakeStock) Reserve(_ context.Context, id string, qty int) (bool, error) {
	if f.levels[id] < qty {
		return false, nil
	}
	f.levels[id] -= qty
	return true, nil
}

func (f *fakeStock) Release(_ context.Context, id string, qty int) error {
	f.levels[id] += qty
	return nil
}

func newFixture() (*Service, *fakeCatalog, *fakeCarts, *fakeOrders, *fakeStock) {
	catalog := &fakeCatalog{products: map[string]models.Product{}}
	carts := &fakeCarts{items: map[string][]models.CartItem{}}
	orders := &fakeOrders{}
	stock := &fakeStock{levels: map[string]int{}}
	svc := NewService(catalog, carts, orders, stock, "INR")
	return svc, catalog, carts, orders, stock
}

func validAddress() models.ShippingAddress {
	return models.ShippingAddress{Street: "12 rue des Lilas", City: "Pune", State: "MH", Pincode: "411001"}
}

// --- Snapshot ---

func TestResolveRepricesFromCatalog(t *testing.T) {
	svc, catalog, carts, _, _ := newFixture()

	// Ajouté au panier à 90, le catalogue affiche maintenant 100
	catalog.products["p1"] = models.Product{Name: "Lampe", Price: 100, Stock: 5, IsActive: true}
	carts.items["u1"] = []models.CartItem{{ProductID: "p1", Quantity: 2, Price: 90}}

	snap, err := svc.Resolve(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, snap.Lines, 1)
	assert.Equal(t, float64(100), snap.Lines[0].UnitPrice)
	assert.Equal(t, float64(200), snap.Subtotal)
}

func TestResolveEmptyCart(t *testing.T) {
	svc, _, _, _, _ := newFixture()
	_, err := svc.Resolve(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestResolveProductGone(t *testing.T) {
	svc, _, carts, _, _ := newFixture()
	carts.items["u1"] = []models.CartItem{{ProductID: "disparu", Quantity: 1}}

	_, err := svc.Resolve(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrProductGone)
}

func TestResolveInactiveProduct(t *testing.T) {
	svc, catalog, carts, _, _ := newFixture()
	catalog.products["p1"] = models.Product{Name: "Lampe", Price: 100, Stock: 5, IsActive: false}
	carts.items["u1"] = []models.CartItem{{ProductID: "p1", Quantity: 1}}

	_, err := svc.Resolve(context.Background(), "u1")
	var unavailable *ProductUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "p1", unavailable.ProductID)
}

func TestResolveInsufficientStock(t *testing.T) {
	svc, catalog, carts, _, _ := newFixture()
	// Stock tombé à 1 entre l'ajout au panier et le checkout
	catalog.products["p1"] = models.Product{Name: "Lampe", Price: 100, Stock: 1, IsActive: true}
	carts.items["u1"] = []models.CartItem{{ProductID: "p1", Quantity: 2}}

	_, err := svc.Resolve(context.Background(), "u1")
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 1, insufficient.Available)
	assert.Equal(t, 2, insufficient.Requested)

	// Le panier n'a pas bougé
	assert.Len(t, carts.items["u1"], 1)
}

// --- Total & adresse ---

func TestTotal(t *testing.T) {
	assert.Equal(t, float64(236), Total(200))     // round(200 × 1.18)
	assert.Equal(t, float64(118), Total(100))     // round(100 × 1.18)
	assert.Equal(t, float64(118), Total(99.99))   // round(117.99)
	assert.Equal(t, float64(0), Total(0))
}

func TestValidateAddress(t *testing.T) {
	assert.Nil(t, ValidateAddress(validAddress()))

	err := ValidateAddress(models.ShippingAddress{Pincode: "411"})
	require.NotNil(t, err)
	assert.Contains(t, err.Fields, "street")
	assert.Contains(t, err.Fields, "city")
	assert.Contains(t, err.Fields, "state")
	assert.Equal(t, "6 chiffres attendus", err.Fields["pincode"])

	err = ValidateAddress(models.ShippingAddress{Street: "a", City: "b", State: "c", Pincode: "12345a"})
	require.NotNil(t, err)
	assert.Contains(t, err.Fields, "pincode")
}

// --- Création de commande ---

func TestCreateOrder(t *testing.T) {
	svc, catalog, carts, orders, stock := newFixture()
	catalog.products["p1"] = models.Product{Name: "Lampe", Price: 100, Stock: 5, IsActive: true}
	carts.items["u1"] = []models.CartItem{{ProductID: "p1", Quantity: 2, Price: 90}}
	stock.levels["p1"] = 5

	snap, err := svc.Resolve(context.Background(), "u1")
	require.NoError(t, err)

	order, err := svc.Create(context.Background(), "u1", validAddress(), snap)
	require.NoError(t, err)

	// Total serveur : round(2 × 100 × 1.18) = 236, pas round(2 × 90 × 1.18)
	assert.Equal(t, float64(236), order.TotalAmount)
	assert.Equal(t, float64(200), order.Subtotal)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, models.OrderStatusPending, order.OrderStatus)
	assert.Empty(t, order.GatewayIntentID)

	require.Len(t, order.Items, 1)
	assert.Equal(t, float64(100), order.Items[0].UnitPrice)

	// Commande écrite, stock décrémenté, panier vidé après coup
	require.Len(t, orders.inserted, 1)
	assert.Equal(t, 3, stock.levels["p1"])
	assert.Contains(t, carts.cleared, "u1")
	assert.Empty(t, carts.items["u1"])
}

func TestCreateInvalidAddress(t *testing.T) {
	svc, _, carts, orders, _ := newFixture()
	carts.items["u1"] = []models.CartItem{{ProductID: "p1", Quantity: 1}}
	snap := &Snapshot{Lines: []Line{{ProductID: "p1", Quantity: 1, UnitPrice: 10}}, Subtotal: 10}

	_, err := svc.Create(context.Background(), "u1", models.ShippingAddress{}, snap)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	// Refusée avant tout effet de bord
	assert.Empty(t, orders.inserted)
	assert.Empty(t, carts.cleared)
}

func TestCreateReservationFailureReleasesStock(t *testing.T) {
	svc, _, carts, orders, stock := newFixture()
	carts.items["u1"] = []models.CartItem{{ProductID: "p1", Quantity: 2}, {ProductID: "p2", Quantity: 3}}
	stock.levels["p1"] = 5
	stock.levels["p2"] = 1 // insuffisant

	snap := &Snapshot{
		Lines: []Line{
			{ProductID: "p1", Name: "A", Quantity: 2, UnitPrice: 10},
			{ProductID: "p2", Name: "B", Quantity: 3, UnitPrice: 20},
		},
		Subtotal: 80,
	}

	_, err := svc.Create(context.Background(), "u1", validAddress(), snap)
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "p2", insufficient.ProductID)

	// La réservation de p1 a été rendue, pas de commande, panier intact
	assert.Equal(t, 5, stock.levels["p1"])
	assert.Equal(t, 1, stock.levels["p2"])
	assert.Empty(t, orders.inserted)
	assert.Len(t, carts.items["u1"], 2)
}

func TestCreateInsertFailureReleasesStockAndKeepsCart(t *testing.T) {
	svc, _, carts, orders, stock := newFixture()
	carts.items["u1"] = []models.CartItem{{ProductID: "p1", Quantity: 2}}
	stock.levels["p1"] = 5
	orders.insertErr = errors.New("écriture refusée")

	snap := &Snapshot{
		Lines:    []Line{{ProductID: "p1", Name: "A", Quantity: 2, UnitPrice: 100}},
		Subtotal: 200,
	}

	_, err := svc.Create(context.Background(), "u1", validAddress(), snap)
	require.Error(t, err)

	// Pas de commande → stock rendu et panier non vidé
	assert.Equal(t, 5, stock.levels["p1"])
	assert.Len(t, carts.items["u1"], 1)
	assert.Empty(t, carts.cleared)
}

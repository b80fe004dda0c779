package order

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/artcorner/art-corner-server/cmd/models"
	"github.com/artcorner/art-corner-server/cmd/utils"
	"github.com/artcorner/art-corner-server/service/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{}, &models.Product{}, &models.Event{},
		&models.CartItem{}, &models.Order{}, &models.OrderItem{},
		&models.Notification{}, &models.Device{}, &models.AuditLog{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func authedRequest(method, target string, body []byte, userID uint) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := context.WithValue(req.Context(), utils.UserIDKey, userID)
	ctx = context.WithValue(ctx, utils.UserRoleKey, models.RoleUser)
	return req.WithContext(ctx)
}

func seedUser(t *testing.T, db *gorm.DB, email string) models.User {
	u := models.User{FullName: "Test User", Email: email, PasswordHash: "x"}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func TestCheckoutShortfallMutatesNothing(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db, events.NewDefaultBus())

	seller := seedUser(t, db, "seller@example.com")
	buyer := seedUser(t, db, "buyer@example.com")

	product := models.Product{UserID: seller.ID, Title: "Print", ForSale: true, Quantity: 2}
	require.NoError(t, db.Create(&product).Error)
	event := models.Event{UserID: seller.ID, Title: "Opening", Capacity: 1}
	require.NoError(t, db.Create(&event).Error)

	require.NoError(t, db.Create(&models.CartItem{
		UserID: buyer.ID, ItemType: models.ItemTypeProduct, ItemID: product.ID, Quantity: 1,
	}).Error)
	// Two tickets against a capacity of one fails the whole checkout.
	require.NoError(t, db.Create(&models.CartItem{
		UserID: buyer.ID, ItemType: models.ItemTypeEvent, ItemID: event.ID, Quantity: 2,
	}).Error)

	rec := httptest.NewRecorder()
	h.Checkout(rec, authedRequest("POST", "/orders/checkout", []byte(`{}`), buyer.ID))
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	db.First(&product, product.ID)
	db.First(&event, event.ID)
	assert.Equal(t, 2, product.Quantity, "product stock untouched")
	assert.Equal(t, 1, event.Capacity, "event capacity untouched")

	var cartCount, orderCount int64
	db.Model(&models.CartItem{}).Where("user_id = ?", buyer.ID).Count(&cartCount)
	db.Model(&models.Order{}).Count(&orderCount)
	assert.Equal(t, int64(2), cartCount, "cart kept for a retry")
	assert.Equal(t, int64(0), orderCount)
}

func TestCheckoutCreatesOrderAndClearsCart(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db, events.NewDefaultBus())

	seller := seedUser(t, db, "seller@example.com")
	buyer := seedUser(t, db, "buyer@example.com")

	product := models.Product{UserID: seller.ID, Title: "Sketch", ForSale: true, Quantity: 3}
	require.NoError(t, db.Create(&product).Error)
	event := models.Event{UserID: seller.ID, Title: "Workshop", Capacity: 5}
	require.NoError(t, db.Create(&event).Error)

	require.NoError(t, db.Create(&models.CartItem{
		UserID: buyer.ID, ItemType: models.ItemTypeProduct, ItemID: product.ID, Quantity: 2,
	}).Error)
	require.NoError(t, db.Create(&models.CartItem{
		UserID: buyer.ID, ItemType: models.ItemTypeEvent, ItemID: event.ID, Quantity: 1,
	}).Error)

	body := []byte(`{"shipping_name":"Ama","shipping_address":"12 Ring Rd","shipping_city":"Accra","shipping_country":"Ghana"}`)
	rec := httptest.NewRecorder()
	h.Checkout(rec, authedRequest("POST", "/orders/checkout", body, buyer.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	db.First(&product, product.ID)
	db.First(&event, event.ID)
	assert.Equal(t, 1, product.Quantity)
	assert.Equal(t, 4, event.Capacity)

	var order models.Order
	require.NoError(t, db.Preload("Items").Where("user_id = ?", buyer.ID).First(&order).Error)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, "Ama", order.ShippingName)
	assert.Len(t, order.Items, 2)
	assert.NotEmpty(t, order.Reference)

	var cartCount int64
	db.Model(&models.CartItem{}).Where("user_id = ?", buyer.ID).Count(&cartCount)
	assert.Equal(t, int64(0), cartCount)

	var note models.Notification
	require.NoError(t, db.Where("user_id = ? AND type = ?", buyer.ID, models.NotificationOrderPlaced).First(&note).Error)
}

func TestCheckoutSkipsOwnProducts(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db, events.NewDefaultBus())

	seller := seedUser(t, db, "seller@example.com")

	own := models.Product{UserID: seller.ID, Title: "Own Work", ForSale: true, Quantity: 1, Price: 0}
	require.NoError(t, db.Create(&own).Error)
	other := seedUser(t, db, "other@example.com")
	theirs := models.Product{UserID: other.ID, Title: "Theirs", ForSale: true, Quantity: 1}
	require.NoError(t, db.Create(&theirs).Error)

	require.NoError(t, db.Create(&models.CartItem{
		UserID: seller.ID, ItemType: models.ItemTypeProduct, ItemID: own.ID, Quantity: 1,
	}).Error)
	require.NoError(t, db.Create(&models.CartItem{
		UserID: seller.ID, ItemType: models.ItemTypeProduct, ItemID: theirs.ID, Quantity: 1,
	}).Error)

	rec := httptest.NewRecorder()
	h.Checkout(rec, authedRequest("POST", "/orders/checkout", []byte(`{}`), seller.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Only the other artist's product was ordered; the seller's own line
	// dropped out and their stock is untouched.
	var order models.Order
	require.NoError(t, db.Preload("Items").Where("user_id = ?", seller.ID).First(&order).Error)
	require.Len(t, order.Items, 1)
	assert.Equal(t, theirs.ID, order.Items[0].ItemID)

	db.First(&own, own.ID)
	assert.Equal(t, 1, own.Quantity)
}

func TestAddToCartMergesQuantity(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db, events.NewDefaultBus())

	seller := seedUser(t, db, "seller@example.com")
	buyer := seedUser(t, db, "buyer@example.com")
	product := models.Product{UserID: seller.ID, Title: "Print", ForSale: true, Quantity: 10}
	require.NoError(t, db.Create(&product).Error)

	body := []byte(`{"item_type":"Product","item_id":1,"quantity":2}`)
	rec := httptest.NewRecorder()
	h.AddToCart(rec, authedRequest("POST", "/cart", body, buyer.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	h.AddToCart(rec, authedRequest("POST", "/cart", body, buyer.ID))
	require.Equal(t, http.StatusCreated, rec.Code)

	var items []models.CartItem
	db.Where("user_id = ?", buyer.ID).Find(&items)
	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Quantity)
}

func TestAddToCartRejectsUnsellableProduct(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db, events.NewDefaultBus())

	seller := seedUser(t, db, "seller@example.com")
	buyer := seedUser(t, db, "buyer@example.com")
	product := models.Product{UserID: seller.ID, Title: "Display Only", ForSale: false}
	require.NoError(t, db.Create(&product).Error)

	body := []byte(`{"item_type":"Product","item_id":1,"quantity":1}`)
	rec := httptest.NewRecorder()
	h.AddToCart(rec, authedRequest("POST", "/cart", body, buyer.ID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResolveItemDefaultsToProduct(t *testing.T) {
	db := setupTestDB(t)

	seller := seedUser(t, db, "seller@example.com")
	product := models.Product{UserID: seller.ID, Title: "Print", ForSale: true, Quantity: 5, Price: 40}
	require.NoError(t, db.Create(&product).Error)

	resolved, err := resolveItem(db, "", product.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemTypeProduct, resolved.Type)
	assert.Equal(t, 5, resolved.Available)
	assert.Equal(t, 40.0, resolved.Price)
}

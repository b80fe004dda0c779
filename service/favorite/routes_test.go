package favorite

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/artcorner/art-corner-server/cmd/models"
	"github.com/artcorner/art-corner-server/cmd/utils"
	"github.com/artcorner/art-corner-server/service/events"
	"github.com/gorilla/mux"
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
		&models.User{}, &models.Product{}, &models.ProductMedia{},
		&models.Event{}, &models.Gallery{}, &models.Article{},
		&models.Favorite{}, &models.FavoriteGallery{}, &models.FavoriteArticle{},
		&models.Notification{}, &models.Device{}, &models.AuditLog{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func authedRequest(method, target string, userID uint, vars map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	ctx := context.WithValue(req.Context(), utils.UserIDKey, userID)
	ctx = context.WithValue(ctx, utils.UserRoleKey, models.RoleUser)
	req = req.WithContext(ctx)
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func seedUser(t *testing.T, db *gorm.DB, email string) models.User {
	u := models.User{FullName: "Test User", Email: email, PasswordHash: "x"}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func TestToggleProductNotifiesOwnerOnce(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db, events.NewDefaultBus())

	artist := seedUser(t, db, "artist@example.com")
	fan := seedUser(t, db, "fan@example.com")
	product := models.Product{UserID: artist.ID, Title: "Print"}
	require.NoError(t, db.Create(&product).Error)

	vars := map[string]string{"id": fmt.Sprint(product.ID)}
	toggle := h.ToggleItem(models.ItemTypeProduct)

	rec := httptest.NewRecorder()
	toggle(rec, authedRequest("POST", "/favorites/products/1", fan.ID, vars))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var count int64
	db.Model(&models.Favorite{}).Where("user_id = ?", fan.ID).Count(&count)
	assert.Equal(t, int64(1), count)
	db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", artist.ID, models.NotificationFavorite).Count(&count)
	assert.Equal(t, int64(1), count)

	// Toggle off removes the row; the notification stays.
	rec = httptest.NewRecorder()
	toggle(rec, authedRequest("POST", "/favorites/products/1", fan.ID, vars))
	require.Equal(t, http.StatusOK, rec.Code)

	db.Model(&models.Favorite{}).Where("user_id = ?", fan.ID).Count(&count)
	assert.Equal(t, int64(0), count)

	// Hard delete means toggling back on works and notifies again.
	rec = httptest.NewRecorder()
	toggle(rec, authedRequest("POST", "/favorites/products/1", fan.ID, vars))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	db.Model(&models.Favorite{}).Where("user_id = ?", fan.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestFavoriteOwnItemDoesNotNotify(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db, events.NewDefaultBus())

	artist := seedUser(t, db, "artist@example.com")
	event := models.Event{UserID: artist.ID, Title: "Opening"}
	require.NoError(t, db.Create(&event).Error)

	rec := httptest.NewRecorder()
	h.ToggleItem(models.ItemTypeEvent)(rec, authedRequest("POST", "/favorites/events/1", artist.ID,
		map[string]string{"id": fmt.Sprint(event.ID)}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var count int64
	db.Model(&models.Favorite{}).Where("user_id = ?", artist.ID).Count(&count)
	assert.Equal(t, int64(1), count)
	db.Model(&models.Notification{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestToggleGalleryAndGetFavorites(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db, events.NewDefaultBus())

	artist := seedUser(t, db, "artist@example.com")
	fan := seedUser(t, db, "fan@example.com")

	gallery := models.Gallery{OwnerID: artist.ID, Title: "Retrospective", IsPublic: true}
	require.NoError(t, db.Create(&gallery).Error)
	product := models.Product{UserID: artist.ID, Title: "Sketch"}
	require.NoError(t, db.Create(&product).Error)

	rec := httptest.NewRecorder()
	h.ToggleGallery(rec, authedRequest("POST", "/favorites/galleries/1", fan.ID,
		map[string]string{"id": fmt.Sprint(gallery.ID)}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ToggleItem(models.ItemTypeProduct)(rec, authedRequest("POST", "/favorites/products/1", fan.ID,
		map[string]string{"id": fmt.Sprint(product.ID)}))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.GetFavorites(rec, authedRequest("GET", "/favorites", fan.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Retrospective")
	assert.Contains(t, body, "Sketch")
}

func TestToggleArticleMissingArticle(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db, events.NewDefaultBus())

	fan := seedUser(t, db, "fan@example.com")

	rec := httptest.NewRecorder()
	h.ToggleArticle(rec, authedRequest("POST", "/favorites/articles/99", fan.ID,
		map[string]string{"id": "99"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

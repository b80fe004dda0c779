package review

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/artcorner/art-corner-server/cmd/models"
	"github.com/artcorner/art-corner-server/cmd/utils"
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
	err = db.AutoMigrate(&models.User{}, &models.Product{}, &models.Review{})
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func authedRequest(method, target string, body []byte, userID uint, role string, vars map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := context.WithValue(req.Context(), utils.UserIDKey, userID)
	ctx = context.WithValue(ctx, utils.UserRoleKey, role)
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

func seedProduct(t *testing.T, db *gorm.DB, ownerID uint) models.Product {
	p := models.Product{UserID: ownerID, Title: "Print", ForSale: true, Quantity: 5}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func productVars(p models.Product) map[string]string {
	return map[string]string{"productId": fmt.Sprint(p.ID)}
}

func TestCreateReviewUpdatesAggregate(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db)

	artist := seedUser(t, db, "artist@example.com")
	alice := seedUser(t, db, "alice@example.com")
	bob := seedUser(t, db, "bob@example.com")
	product := seedProduct(t, db, artist.ID)

	rec := httptest.NewRecorder()
	h.CreateReview(rec, authedRequest("POST", "/products/1/reviews",
		[]byte(`{"rating":4,"body":"solid work"}`), alice.ID, models.RoleUser, productVars(product)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	h.CreateReview(rec, authedRequest("POST", "/products/1/reviews",
		[]byte(`{"rating":5}`), bob.ID, models.RoleUser, productVars(product)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	db.First(&product, product.ID)
	assert.Equal(t, 4.5, product.AverageRating)
	assert.Equal(t, 2, product.TotalReviews)
}

func TestCreateReviewRejectsDuplicateAndSelf(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db)

	artist := seedUser(t, db, "artist@example.com")
	alice := seedUser(t, db, "alice@example.com")
	product := seedProduct(t, db, artist.ID)

	rec := httptest.NewRecorder()
	h.CreateReview(rec, authedRequest("POST", "/products/1/reviews",
		[]byte(`{"rating":3}`), alice.ID, models.RoleUser, productVars(product)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.CreateReview(rec, authedRequest("POST", "/products/1/reviews",
		[]byte(`{"rating":5}`), alice.ID, models.RoleUser, productVars(product)))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	h.CreateReview(rec, authedRequest("POST", "/products/1/reviews",
		[]byte(`{"rating":5}`), artist.ID, models.RoleUser, productVars(product)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateReviewValidatesRating(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db)

	artist := seedUser(t, db, "artist@example.com")
	alice := seedUser(t, db, "alice@example.com")
	product := seedProduct(t, db, artist.ID)

	for _, rating := range []string{"0", "6", "-1"} {
		rec := httptest.NewRecorder()
		h.CreateReview(rec, authedRequest("POST", "/products/1/reviews",
			[]byte(`{"rating":`+rating+`}`), alice.ID, models.RoleUser, productVars(product)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "rating %s", rating)
	}
}

func TestDeleteReviewRecomputesToZero(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db)

	artist := seedUser(t, db, "artist@example.com")
	alice := seedUser(t, db, "alice@example.com")
	product := seedProduct(t, db, artist.ID)

	rec := httptest.NewRecorder()
	h.CreateReview(rec, authedRequest("POST", "/products/1/reviews",
		[]byte(`{"rating":2}`), alice.ID, models.RoleUser, productVars(product)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var review models.Review
	require.NoError(t, db.Where("user_id = ?", alice.ID).First(&review).Error)

	rec = httptest.NewRecorder()
	h.DeleteReview(rec, authedRequest("DELETE", "/reviews/1", nil, alice.ID, models.RoleUser,
		map[string]string{"id": fmt.Sprint(review.ID)}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	db.First(&product, product.ID)
	assert.Equal(t, 0.0, product.AverageRating)
	assert.Equal(t, 0, product.TotalReviews)

	// Hard delete frees the unique index for a fresh review.
	rec = httptest.NewRecorder()
	h.CreateReview(rec, authedRequest("POST", "/products/1/reviews",
		[]byte(`{"rating":4}`), alice.ID, models.RoleUser, productVars(product)))
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestUpdateReviewRecomputesAggregate(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db)

	artist := seedUser(t, db, "artist@example.com")
	alice := seedUser(t, db, "alice@example.com")
	product := seedProduct(t, db, artist.ID)

	rec := httptest.NewRecorder()
	h.CreateReview(rec, authedRequest("POST", "/products/1/reviews",
		[]byte(`{"rating":2,"body":"meh"}`), alice.ID, models.RoleUser, productVars(product)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var review models.Review
	require.NoError(t, db.Where("user_id = ?", alice.ID).First(&review).Error)

	rec = httptest.NewRecorder()
	h.UpdateReview(rec, authedRequest("PUT", "/reviews/1",
		[]byte(`{"rating":5}`), alice.ID, models.RoleUser,
		map[string]string{"id": fmt.Sprint(review.ID)}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	db.First(&product, product.ID)
	assert.Equal(t, 5.0, product.AverageRating)

	db.First(&review, review.ID)
	assert.Equal(t, "meh", review.Body, "body untouched when omitted")
}

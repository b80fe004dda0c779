package review

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/artcorner/art-corner-server/cmd/models"
	"github.com/artcorner/art-corner-server/cmd/utils"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	auth := utils.AuthMiddleware(h.db)

	router.HandleFunc("/products/{productId}/reviews", h.GetProductReviews).Methods("GET")
	router.HandleFunc("/products/{productId}/reviews", auth(h.CreateReview)).Methods("POST")
	router.HandleFunc("/reviews/{id}", auth(h.UpdateReview)).Methods("PUT")
	router.HandleFunc("/reviews/{id}", auth(h.DeleteReview)).Methods("DELETE")
}

// recomputeProductRating recalculates the denormalized aggregate on the
// product row. Every review mutation funnels through this; nothing else
// writes AverageRating or TotalReviews.
func recomputeProductRating(tx *gorm.DB, productID uint) error {
	var stats struct {
		Count int64
		Avg   float64
	}
	if err := tx.Model(&models.Review{}).
		Where("product_id = ?", productID).
		Select("COUNT(*) as count, COALESCE(AVG(rating), 0) as avg").
		Scan(&stats).Error; err != nil {
		return err
	}

	rounded := math.Round(stats.Avg*10) / 10
	if stats.Count == 0 {
		rounded = 0
	}

	return tx.Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"average_rating": rounded,
			"total_reviews":  stats.Count,
		}).Error
}

func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	productID, err := strconv.ParseUint(mux.Vars(r)["productId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	var body struct {
		Rating float64 `json:"rating"`
		Body   string  `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.Rating < 1 || body.Rating > 5 {
		http.Error(w, "Rating must be between 1 and 5", http.StatusBadRequest)
		return
	}

	var product models.Product
	if err := h.db.First(&product, productID).Error; err != nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	if product.UserID == userID {
		http.Error(w, "You cannot review your own product", http.StatusForbidden)
		return
	}

	var existing models.Review
	err = h.db.Where("user_id = ? AND product_id = ?", userID, productID).First(&existing).Error
	if err == nil {
		http.Error(w, "You have already reviewed this product", http.StatusConflict)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Error creating review", http.StatusInternalServerError)
		return
	}

	review := models.Review{
		UserID:    userID,
		ProductID: uint(productID),
		Rating:    body.Rating,
		Body:      body.Body,
	}

	tx := h.db.Begin()
	if err := tx.Create(&review).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error creating review", http.StatusInternalServerError)
		return
	}
	if err := recomputeProductRating(tx, uint(productID)); err != nil {
		tx.Rollback()
		http.Error(w, "Error updating product rating", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error creating review", http.StatusInternalServerError)
		return
	}

	h.db.Preload("User").First(&review, review.ID)
	utils.RespondWithJSON(w, http.StatusCreated, review)
}

func (h *Handler) GetProductReviews(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseUint(mux.Vars(r)["productId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	page, perPage := utils.ParsePaginationParams(r)

	var total int64
	if err := h.db.Model(&models.Review{}).Where("product_id = ?", productID).Count(&total).Error; err != nil {
		http.Error(w, "Error retrieving reviews", http.StatusInternalServerError)
		return
	}

	var reviews []models.Review
	if err := h.db.Where("product_id = ?", productID).
		Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&reviews).Error; err != nil {
		http.Error(w, "Error retrieving reviews", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"reviews":    reviews,
		"pagination": utils.NewPaginationMeta(page, perPage, total),
	})
}

func (h *Handler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	reviewID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid review ID", http.StatusBadRequest)
		return
	}

	var body struct {
		Rating *float64 `json:"rating"`
		Body   *string  `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var review models.Review
	if err := h.db.First(&review, reviewID).Error; err != nil {
		http.Error(w, "Review not found", http.StatusNotFound)
		return
	}
	if review.UserID != userID {
		http.Error(w, "You do not own this review", http.StatusForbidden)
		return
	}

	if body.Rating != nil {
		if *body.Rating < 1 || *body.Rating > 5 {
			http.Error(w, "Rating must be between 1 and 5", http.StatusBadRequest)
			return
		}
		review.Rating = *body.Rating
	}
	if body.Body != nil {
		review.Body = *body.Body
	}

	tx := h.db.Begin()
	if err := tx.Save(&review).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error updating review", http.StatusInternalServerError)
		return
	}
	if err := recomputeProductRating(tx, review.ProductID); err != nil {
		tx.Rollback()
		http.Error(w, "Error updating product rating", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error updating review", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, review)
}

func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	reviewID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid review ID", http.StatusBadRequest)
		return
	}

	var review models.Review
	if err := h.db.First(&review, reviewID).Error; err != nil {
		http.Error(w, "Review not found", http.StatusNotFound)
		return
	}
	if review.UserID != userID && utils.GetUserRoleFromContext(r.Context()) != models.RoleAdmin {
		http.Error(w, "You do not own this review", http.StatusForbidden)
		return
	}

	tx := h.db.Begin()
	if err := tx.Delete(&review).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error deleting review", http.StatusInternalServerError)
		return
	}
	if err := recomputeProductRating(tx, review.ProductID); err != nil {
		tx.Rollback()
		http.Error(w, "Error updating product rating", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error deleting review", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Review deleted successfully"})
}

package product

import (
	"encoding/json"
	"errors"
	"fmt"
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

	router.HandleFunc("/products", auth(h.CreateProduct)).Methods("POST")
	router.HandleFunc("/products", h.GetProducts).Methods("GET")
	router.HandleFunc("/products/{id}", h.GetProduct).Methods("GET")
	router.HandleFunc("/products/{id}", auth(h.UpdateProduct)).Methods("PUT")
	router.HandleFunc("/products/{id}", auth(h.DeleteProduct)).Methods("DELETE")
	router.HandleFunc("/users/{id}/products", h.GetUserProducts).Methods("GET")
}

// CreateProduct accepts multipart form data: product fields plus any
// number of media files.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	title := r.FormValue("title")
	if title == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}

	forSale, _ := strconv.ParseBool(r.FormValue("for_sale"))
	price, _ := strconv.ParseFloat(r.FormValue("price"), 64)
	quantity, _ := strconv.Atoi(r.FormValue("quantity"))

	// Enforced at creation only, same as the rest of the platform.
	if forSale && price <= 0 {
		http.Error(w, "A product for sale must have a price greater than zero", http.StatusBadRequest)
		return
	}

	tx := h.db.Begin()

	product := models.Product{
		UserID:      userID,
		Title:       title,
		Description: r.FormValue("description"),
		ForSale:     forSale,
		Price:       price,
		Quantity:    quantity,
	}

	if err := tx.Create(&product).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error creating product", http.StatusInternalServerError)
		return
	}

	files := r.MultipartForm.File["media"]
	for i, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			tx.Rollback()
			http.Error(w, "Error processing media", http.StatusInternalServerError)
			return
		}
		defer file.Close()

		mediaURL, kind, err := utils.SaveMedia(file, fileHeader)
		if err != nil {
			tx.Rollback()
			http.Error(w, fmt.Sprintf("Error saving media: %v", err), http.StatusInternalServerError)
			return
		}

		media := models.ProductMedia{
			ProductID: product.ID,
			Kind:      kind,
			URL:       mediaURL,
			Position:  i,
		}
		if err := tx.Create(&media).Error; err != nil {
			tx.Rollback()
			utils.DeleteMedia(mediaURL)
			http.Error(w, "Error saving media record", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error saving product", http.StatusInternalServerError)
		return
	}

	h.db.Preload("Media").Preload("User").First(&product, product.ID)
	utils.RespondWithJSON(w, http.StatusCreated, product)
}

func (h *Handler) GetProducts(w http.ResponseWriter, r *http.Request) {
	page, perPage := utils.ParsePaginationParams(r)

	query := h.db.Model(&models.Product{}).Preload("Media").Preload("User")

	if forSale := r.URL.Query().Get("for_sale"); forSale != "" {
		isForSale, parseErr := strconv.ParseBool(forSale)
		if parseErr != nil {
			http.Error(w, "Invalid value for 'for_sale'", http.StatusBadRequest)
			return
		}
		query = query.Where("for_sale = ?", isForSale)
	}
	if q := r.URL.Query().Get("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", like, like)
	}

	var total int64
	query.Count(&total)

	var products []models.Product
	if err := query.Offset((page - 1) * perPage).Limit(perPage).Order("created_at DESC").Find(&products).Error; err != nil {
		http.Error(w, "Error retrieving products", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"products":   products,
		"pagination": utils.NewPaginationMeta(page, perPage, total),
	})
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	productID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	var product models.Product
	result := h.db.Preload("Media").Preload("User").Preload("Reviews.User").First(&product, productID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
		} else {
			http.Error(w, "Error retrieving product", http.StatusInternalServerError)
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, product)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	productID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var product models.Product
	if err := h.db.First(&product, productID).Error; err != nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	if product.UserID != userID {
		http.Error(w, "You do not own this product", http.StatusForbidden)
		return
	}

	var updateData struct {
		Title       *string  `json:"title"`
		Description *string  `json:"description"`
		ForSale     *bool    `json:"for_sale"`
		Price       *float64 `json:"price"`
		Quantity    *int     `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&updateData); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if updateData.Title != nil {
		product.Title = *updateData.Title
	}
	if updateData.Description != nil {
		product.Description = *updateData.Description
	}
	if updateData.ForSale != nil {
		product.ForSale = *updateData.ForSale
	}
	if updateData.Price != nil {
		product.Price = *updateData.Price
	}
	if updateData.Quantity != nil {
		product.Quantity = *updateData.Quantity
	}

	if err := h.db.Save(&product).Error; err != nil {
		http.Error(w, "Error updating product", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct removes the product and the rows on other documents that
// point at it: gallery memberships, cart lines, favorites and reviews.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	productID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var product models.Product
	if err := h.db.First(&product, productID).Error; err != nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	if product.UserID != userID && utils.GetUserRoleFromContext(r.Context()) != models.RoleAdmin {
		http.Error(w, "You do not own this product", http.StatusForbidden)
		return
	}

	tx := h.db.Begin()

	if err := tx.Where("product_id = ?", productID).Delete(&models.GalleryProduct{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error removing gallery memberships", http.StatusInternalServerError)
		return
	}
	if err := tx.Where("item_type = ? AND item_id = ?", models.ItemTypeProduct, productID).Delete(&models.CartItem{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error removing cart items", http.StatusInternalServerError)
		return
	}
	if err := tx.Where("item_type = ? AND item_id = ?", models.ItemTypeProduct, productID).Delete(&models.Favorite{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error removing favorites", http.StatusInternalServerError)
		return
	}
	if err := tx.Where("product_id = ?", productID).Delete(&models.Review{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error removing reviews", http.StatusInternalServerError)
		return
	}
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductMedia{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error removing media", http.StatusInternalServerError)
		return
	}
	if err := tx.Delete(&product).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error deleting product", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error deleting product", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Product deleted successfully",
	})
}

func (h *Handler) GetUserProducts(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ownerID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	page, perPage := utils.ParsePaginationParams(r)

	query := h.db.Model(&models.Product{}).Where("user_id = ?", ownerID).Preload("Media")

	var total int64
	query.Count(&total)

	var products []models.Product
	if err := query.Offset((page - 1) * perPage).Limit(perPage).Order("created_at DESC").Find(&products).Error; err != nil {
		http.Error(w, "Error retrieving products", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"products":   products,
		"pagination": utils.NewPaginationMeta(page, perPage, total),
	})
}

package gallery

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/artcorner/art-corner-server/cmd/models"
	"github.com/artcorner/art-corner-server/cmd/utils"
	"github.com/artcorner/art-corner-server/service/events"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type Handler struct {
	db  *gorm.DB
	bus *events.Bus
}

func NewHandler(db *gorm.DB, bus *events.Bus) *Handler {
	return &Handler{db: db, bus: bus}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	auth := utils.AuthMiddleware(h.db)

	router.HandleFunc("/galleries", auth(h.CreateGallery)).Methods("POST")
	router.HandleFunc("/galleries", h.GetGalleries).Methods("GET")
	router.HandleFunc("/galleries/{id}", h.GetGallery).Methods("GET")
	router.HandleFunc("/galleries/{id}", auth(h.UpdateGallery)).Methods("PUT")
	router.HandleFunc("/galleries/{id}", auth(h.DeleteGallery)).Methods("DELETE")

	router.HandleFunc("/galleries/{id}/products", auth(h.AddProduct)).Methods("POST")
	router.HandleFunc("/galleries/{id}/products/{productId}", auth(h.RemoveProduct)).Methods("DELETE")
	router.HandleFunc("/galleries/{id}/products/reorder", auth(h.ReorderProducts)).Methods("PUT")

	router.HandleFunc("/galleries/{id}/collaborators", auth(h.UpdateCollaborators)).Methods("PUT")
	router.HandleFunc("/galleries/{id}/collaborators/accept", auth(h.AcceptInvite)).Methods("POST")
	router.HandleFunc("/galleries/{id}/collaborators/decline", auth(h.DeclineInvite)).Methods("POST")
}

func (h *Handler) loadGallery(w http.ResponseWriter, r *http.Request) (*models.Gallery, bool) {
	vars := mux.Vars(r)
	galleryID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid gallery ID", http.StatusBadRequest)
		return nil, false
	}

	var gallery models.Gallery
	if err := h.db.Preload("Collaborators").First(&gallery, galleryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Gallery not found", http.StatusNotFound)
		} else {
			http.Error(w, "Error retrieving gallery", http.StatusInternalServerError)
		}
		return nil, false
	}
	return &gallery, true
}

// canEdit reports whether the user is the owner or an accepted collaborator.
func canEdit(gallery *models.Gallery, userID uint) bool {
	if gallery.OwnerID == userID {
		return true
	}
	for _, c := range gallery.Collaborators {
		if c.UserID == userID && c.Status == models.CollaboratorAccepted {
			return true
		}
	}
	return false
}

func (h *Handler) CreateGallery(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		IsPublic    *bool  `json:"is_public"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.Title == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}

	gallery := models.Gallery{
		OwnerID:     userID,
		Title:       body.Title,
		Description: body.Description,
		IsPublic:    true,
	}
	if body.IsPublic != nil {
		gallery.IsPublic = *body.IsPublic
	}

	if err := h.db.Create(&gallery).Error; err != nil {
		http.Error(w, "Error creating gallery", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, gallery)
}

func (h *Handler) GetGalleries(w http.ResponseWriter, r *http.Request) {
	page, perPage := utils.ParsePaginationParams(r)

	query := h.db.Model(&models.Gallery{}).Where("is_public = ?", true).
		Preload("Owner").Preload("Products.Product")

	if owner := r.URL.Query().Get("owner"); owner != "" {
		query = query.Where("owner_id = ?", owner)
	}

	var total int64
	query.Count(&total)

	var galleries []models.Gallery
	if err := query.Offset((page - 1) * perPage).Limit(perPage).Order("created_at DESC").Find(&galleries).Error; err != nil {
		http.Error(w, "Error retrieving galleries", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"galleries":  galleries,
		"pagination": utils.NewPaginationMeta(page, perPage, total),
	})
}

func (h *Handler) GetGallery(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	galleryID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid gallery ID", http.StatusBadRequest)
		return
	}

	var gallery models.Gallery
	result := h.db.Preload("Owner").Preload("Collaborators.User").
		Preload("Products", func(db *gorm.DB) *gorm.DB {
			return db.Order("gallery_products.position ASC")
		}).
		Preload("Products.Product.Media").
		First(&gallery, galleryID)
	if result.Error != nil {
		http.Error(w, "Gallery not found", http.StatusNotFound)
		return
	}

	if !gallery.IsPublic {
		userID := utils.OptionalUserID(h.db, r)
		if userID == 0 || !canEdit(&gallery, userID) {
			http.Error(w, "Gallery not found", http.StatusNotFound)
			return
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, gallery)
}

func (h *Handler) UpdateGallery(w http.ResponseWriter, r *http.Request) {
	gallery, ok := h.loadGallery(w, r)
	if !ok {
		return
	}

	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if !canEdit(gallery, userID) {
		http.Error(w, "You cannot edit this gallery", http.StatusForbidden)
		return
	}

	var body struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		IsPublic    *bool   `json:"is_public"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if body.Title != nil {
		gallery.Title = *body.Title
	}
	if body.Description != nil {
		gallery.Description = *body.Description
	}
	if body.IsPublic != nil {
		gallery.IsPublic = *body.IsPublic
	}

	if err := h.db.Save(gallery).Error; err != nil {
		http.Error(w, "Error updating gallery", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, gallery)
}

func (h *Handler) DeleteGallery(w http.ResponseWriter, r *http.Request) {
	gallery, ok := h.loadGallery(w, r)
	if !ok {
		return
	}

	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if gallery.OwnerID != userID {
		http.Error(w, "Only the owner can delete a gallery", http.StatusForbidden)
		return
	}

	tx := h.db.Begin()
	if err := tx.Where("gallery_id = ?", gallery.ID).Delete(&models.GalleryCollaborator{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error deleting collaborators", http.StatusInternalServerError)
		return
	}
	if err := tx.Where("gallery_id = ?", gallery.ID).Delete(&models.GalleryProduct{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error deleting gallery products", http.StatusInternalServerError)
		return
	}
	if err := tx.Where("gallery_id = ?", gallery.ID).Delete(&models.FavoriteGallery{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error deleting favorites", http.StatusInternalServerError)
		return
	}
	if err := tx.Delete(gallery).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error deleting gallery", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error deleting gallery", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Gallery deleted successfully",
	})
}

// AddProduct appends a product at the end of the gallery's ordering.
func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	gallery, ok := h.loadGallery(w, r)
	if !ok {
		return
	}

	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if !canEdit(gallery, userID) {
		http.Error(w, "You cannot edit this gallery", http.StatusForbidden)
		return
	}

	var body struct {
		ProductID uint `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var product models.Product
	if err := h.db.First(&product, body.ProductID).Error; err != nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	var count int64
	h.db.Model(&models.GalleryProduct{}).Where("gallery_id = ?", gallery.ID).Count(&count)

	entry := models.GalleryProduct{
		GalleryID: gallery.ID,
		ProductID: product.ID,
		Position:  int(count),
	}
	if err := h.db.Create(&entry).Error; err != nil {
		http.Error(w, "Product is already in this gallery", http.StatusConflict)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, entry)
}

// RemoveProduct drops a membership and compacts the remaining positions
// back to a dense 0..n-1 sequence.
func (h *Handler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	gallery, ok := h.loadGallery(w, r)
	if !ok {
		return
	}

	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if !canEdit(gallery, userID) {
		http.Error(w, "You cannot edit this gallery", http.StatusForbidden)
		return
	}

	productID, err := strconv.ParseUint(mux.Vars(r)["productId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	tx := h.db.Begin()

	result := tx.Where("gallery_id = ? AND product_id = ?", gallery.ID, productID).Delete(&models.GalleryProduct{})
	if result.Error != nil {
		tx.Rollback()
		http.Error(w, "Error removing product", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		http.Error(w, "Product is not in this gallery", http.StatusNotFound)
		return
	}

	if err := compactPositions(tx, gallery.ID); err != nil {
		tx.Rollback()
		http.Error(w, "Error reordering products", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error removing product", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Product removed from gallery",
	})
}

// ReorderProducts takes the full desired ordering as a product id list
// and rewrites positions as a dense permutation.
func (h *Handler) ReorderProducts(w http.ResponseWriter, r *http.Request) {
	gallery, ok := h.loadGallery(w, r)
	if !ok {
		return
	}

	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if !canEdit(gallery, userID) {
		http.Error(w, "You cannot edit this gallery", http.StatusForbidden)
		return
	}

	var body struct {
		ProductIDs []uint `json:"product_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var entries []models.GalleryProduct
	if err := h.db.Where("gallery_id = ?", gallery.ID).Find(&entries).Error; err != nil {
		http.Error(w, "Error loading gallery products", http.StatusInternalServerError)
		return
	}
	if len(body.ProductIDs) != len(entries) {
		http.Error(w, "Reorder list must contain every gallery product exactly once", http.StatusBadRequest)
		return
	}

	byProduct := make(map[uint]*models.GalleryProduct, len(entries))
	for i := range entries {
		byProduct[entries[i].ProductID] = &entries[i]
	}

	tx := h.db.Begin()
	for position, productID := range body.ProductIDs {
		entry, ok := byProduct[productID]
		if !ok {
			tx.Rollback()
			http.Error(w, "Reorder list contains a product not in this gallery", http.StatusBadRequest)
			return
		}
		if err := tx.Model(&models.GalleryProduct{}).Where("id = ?", entry.ID).
			Update("position", position).Error; err != nil {
			tx.Rollback()
			http.Error(w, "Error reordering products", http.StatusInternalServerError)
			return
		}
		delete(byProduct, productID)
	}
	if len(byProduct) != 0 {
		tx.Rollback()
		http.Error(w, "Reorder list must contain every gallery product exactly once", http.StatusBadRequest)
		return
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error reordering products", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Gallery reordered",
	})
}

func compactPositions(tx *gorm.DB, galleryID uint) error {
	var entries []models.GalleryProduct
	if err := tx.Where("gallery_id = ?", galleryID).Order("position ASC").Find(&entries).Error; err != nil {
		return err
	}
	for i, entry := range entries {
		if entry.Position == i {
			continue
		}
		if err := tx.Model(&models.GalleryProduct{}).Where("id = ?", entry.ID).
			Update("position", i).Error; err != nil {
			return err
		}
	}
	return nil
}

// UpdateCollaborators reconciles the owner's submitted collaborator list
// against the current accepted and pending sets, and notifies each
// affected user about their transition.
func (h *Handler) UpdateCollaborators(w http.ResponseWriter, r *http.Request) {
	gallery, ok := h.loadGallery(w, r)
	if !ok {
		return
	}

	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if gallery.OwnerID != userID {
		http.Error(w, "Only the owner can manage collaborators", http.StatusForbidden)
		return
	}

	// A malformed collaborator payload is coerced to an empty list, which
	// withdraws every invite and removes every collaborator.
	var body struct {
		Collaborators json.RawMessage `json:"collaborators"`
	}
	var submitted []uint
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Printf("gallery %d: malformed collaborators payload, treating as empty: %v", gallery.ID, err)
	} else if len(body.Collaborators) > 0 {
		if err := json.Unmarshal(body.Collaborators, &submitted); err != nil {
			log.Printf("gallery %d: malformed collaborators list, treating as empty: %v", gallery.ID, err)
			submitted = nil
		}
	}

	var accepted, pending []uint
	for _, c := range gallery.Collaborators {
		switch c.Status {
		case models.CollaboratorAccepted:
			accepted = append(accepted, c.UserID)
		case models.CollaboratorPending:
			pending = append(pending, c.UserID)
		}
	}

	diff := reconcileCollaborators(gallery.OwnerID, accepted, pending, submitted)

	tx := h.db.Begin()

	for _, id := range diff.invite {
		var invitee models.User
		if err := tx.First(&invitee, id).Error; err != nil {
			// Unknown ids are skipped rather than failing the whole list.
			log.Printf("gallery %d: skipping unknown collaborator id %d", gallery.ID, id)
			continue
		}
		row := models.GalleryCollaborator{
			GalleryID: gallery.ID,
			UserID:    id,
			Status:    models.CollaboratorPending,
		}
		if err := tx.Create(&row).Error; err != nil {
			tx.Rollback()
			http.Error(w, "Error inviting collaborator", http.StatusInternalServerError)
			return
		}
		if err := h.bus.Publish(tx, events.CollaboratorInvited{
			GalleryID: gallery.ID, GalleryTitle: gallery.Title,
			OwnerID: gallery.OwnerID, UserID: id,
		}); err != nil {
			tx.Rollback()
			http.Error(w, "Error notifying collaborator", http.StatusInternalServerError)
			return
		}
	}

	for _, id := range diff.withdraw {
		if err := tx.Where("gallery_id = ? AND user_id = ? AND status = ?",
			gallery.ID, id, models.CollaboratorPending).
			Delete(&models.GalleryCollaborator{}).Error; err != nil {
			tx.Rollback()
			http.Error(w, "Error withdrawing invite", http.StatusInternalServerError)
			return
		}
		if err := h.bus.Publish(tx, events.CollaboratorWithdrawn{
			GalleryID: gallery.ID, GalleryTitle: gallery.Title,
			OwnerID: gallery.OwnerID, UserID: id,
		}); err != nil {
			tx.Rollback()
			http.Error(w, "Error notifying collaborator", http.StatusInternalServerError)
			return
		}
	}

	for _, id := range diff.remove {
		if err := tx.Where("gallery_id = ? AND user_id = ? AND status = ?",
			gallery.ID, id, models.CollaboratorAccepted).
			Delete(&models.GalleryCollaborator{}).Error; err != nil {
			tx.Rollback()
			http.Error(w, "Error removing collaborator", http.StatusInternalServerError)
			return
		}
		if err := h.bus.Publish(tx, events.CollaboratorRemoved{
			GalleryID: gallery.ID, GalleryTitle: gallery.Title,
			OwnerID: gallery.OwnerID, UserID: id,
		}); err != nil {
			tx.Rollback()
			http.Error(w, "Error notifying collaborator", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error updating collaborators", http.StatusInternalServerError)
		return
	}

	var collaborators []models.GalleryCollaborator
	h.db.Where("gallery_id = ?", gallery.ID).Preload("User").Find(&collaborators)

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "Collaborators updated",
		"collaborators": collaborators,
	})
}

// AcceptInvite moves the caller from pending to accepted.
func (h *Handler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	gallery, ok := h.loadGallery(w, r)
	if !ok {
		return
	}

	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	tx := h.db.Begin()

	result := tx.Model(&models.GalleryCollaborator{}).
		Where("gallery_id = ? AND user_id = ? AND status = ?", gallery.ID, userID, models.CollaboratorPending).
		Update("status", models.CollaboratorAccepted)
	if result.Error != nil {
		tx.Rollback()
		http.Error(w, "Error accepting invite", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		http.Error(w, "No pending invite for this gallery", http.StatusNotFound)
		return
	}

	if err := h.bus.Publish(tx, events.CollaboratorAccepted{
		GalleryID: gallery.ID, GalleryTitle: gallery.Title,
		OwnerID: gallery.OwnerID, UserID: userID,
	}); err != nil {
		tx.Rollback()
		http.Error(w, "Error notifying owner", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error accepting invite", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Invite accepted",
	})
}

// DeclineInvite removes the caller's pending invite entirely.
func (h *Handler) DeclineInvite(w http.ResponseWriter, r *http.Request) {
	gallery, ok := h.loadGallery(w, r)
	if !ok {
		return
	}

	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	tx := h.db.Begin()

	result := tx.Where("gallery_id = ? AND user_id = ? AND status = ?",
		gallery.ID, userID, models.CollaboratorPending).
		Delete(&models.GalleryCollaborator{})
	if result.Error != nil {
		tx.Rollback()
		http.Error(w, "Error declining invite", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		http.Error(w, "No pending invite for this gallery", http.StatusNotFound)
		return
	}

	if err := h.bus.Publish(tx, events.CollaboratorDeclined{
		GalleryID: gallery.ID, GalleryTitle: gallery.Title,
		OwnerID: gallery.OwnerID, UserID: userID,
	}); err != nil {
		tx.Rollback()
		http.Error(w, "Error notifying owner", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error declining invite", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Invite declined",
	})
}

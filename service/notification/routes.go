package notification

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/artcorner/art-corner-server/cmd/models"
	"github.com/artcorner/art-corner-server/cmd/utils"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	auth := utils.AuthMiddleware(h.db)

	router.HandleFunc("/notifications", auth(h.GetNotifications)).Methods("GET")
	router.HandleFunc("/notifications/seen", auth(h.MarkAllSeen)).Methods("PUT")
	router.HandleFunc("/notifications/{id}/seen", auth(h.MarkSeen)).Methods("PUT")
	router.HandleFunc("/notifications/{id}", auth(h.DeleteNotification)).Methods("DELETE")

	router.HandleFunc("/devices", auth(h.RegisterDevice)).Methods("POST")
	router.HandleFunc("/devices/{token}", auth(h.UnregisterDevice)).Methods("DELETE")
}

func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	page, perPage := utils.ParsePaginationParams(r)

	query := h.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if r.URL.Query().Get("unseen") == "true" {
		query = query.Where("seen = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		http.Error(w, "Error retrieving notifications", http.StatusInternalServerError)
		return
	}

	var notifications []models.Notification
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&notifications).Error; err != nil {
		http.Error(w, "Error retrieving notifications", http.StatusInternalServerError)
		return
	}

	var unseen int64
	h.db.Model(&models.Notification{}).Where("user_id = ? AND seen = ?", userID, false).Count(&unseen)

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"unseen_count":  unseen,
		"pagination":    utils.NewPaginationMeta(page, perPage, total),
	})
}

func (h *Handler) MarkSeen(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	notificationID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	result := h.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("seen", true)
	if result.Error != nil {
		http.Error(w, "Error updating notification", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "Notification not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Notification marked as seen"})
}

func (h *Handler) MarkAllSeen(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.db.Model(&models.Notification{}).
		Where("user_id = ? AND seen = ?", userID, false).
		Update("seen", true).Error; err != nil {
		http.Error(w, "Error updating notifications", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "All notifications marked as seen"})
}

func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	notificationID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	result := h.db.Where("id = ? AND user_id = ?", notificationID, userID).
		Delete(&models.Notification{})
	if result.Error != nil {
		http.Error(w, "Error deleting notification", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "Notification not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Notification deleted"})
}

// RegisterDevice stores an Expo push token. Re-registering the same
// token refreshes its metadata instead of duplicating it.
func (h *Handler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		Token      string `json:"token"`
		DeviceType string `json:"device_type"`
		DeviceName string `json:"device_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Token == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	device := models.Device{
		UserID:     userID,
		Token:      body.Token,
		DeviceType: body.DeviceType,
		DeviceName: body.DeviceName,
	}
	if err := h.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"device_type", "device_name"}),
	}).Create(&device).Error; err != nil {
		http.Error(w, "Error registering device", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, device)
}

func (h *Handler) UnregisterDevice(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token := mux.Vars(r)["token"]
	result := h.db.Where("user_id = ? AND token = ?", userID, token).Delete(&models.Device{})
	if result.Error != nil {
		http.Error(w, "Error unregistering device", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "Device not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Device unregistered"})
}

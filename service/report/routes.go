package report

import (
	"encoding/json"
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
	admin := utils.AdminMiddleware(h.db)

	router.HandleFunc("/reports", auth(h.CreateReport)).Methods("POST")
	router.HandleFunc("/reports", admin(h.GetReports)).Methods("GET")
	router.HandleFunc("/reports/{id}/resolve", admin(h.ResolveReport)).Methods("PUT")
}

func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		TargetType models.ResourceType `json:"target_type"`
		TargetID   uint                `json:"target_id"`
		Reason     string              `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !models.ValidResourceType(body.TargetType) {
		http.Error(w, "Invalid target type", http.StatusBadRequest)
		return
	}
	if body.Reason == "" {
		http.Error(w, "Reason is required", http.StatusBadRequest)
		return
	}

	report := models.Report{
		ReporterID: userID,
		TargetType: body.TargetType,
		TargetID:   body.TargetID,
		Reason:     body.Reason,
		Status:     models.ReportOpen,
	}

	tx := h.db.Begin()
	if err := tx.Create(&report).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error filing report", http.StatusInternalServerError)
		return
	}
	if err := h.bus.Publish(tx, events.ReportFiled{
		ReportID:   report.ID,
		ReporterID: userID,
		TargetType: body.TargetType,
		TargetID:   body.TargetID,
	}); err != nil {
		tx.Rollback()
		http.Error(w, "Error filing report", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error filing report", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, report)
}

func (h *Handler) GetReports(w http.ResponseWriter, r *http.Request) {
	page, perPage := utils.ParsePaginationParams(r)

	query := h.db.Model(&models.Report{})
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		http.Error(w, "Error retrieving reports", http.StatusInternalServerError)
		return
	}

	var reports []models.Report
	if err := query.
		Preload("Reporter").
		Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&reports).Error; err != nil {
		http.Error(w, "Error retrieving reports", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"reports":    reports,
		"pagination": utils.NewPaginationMeta(page, perPage, total),
	})
}

func (h *Handler) ResolveReport(w http.ResponseWriter, r *http.Request) {
	adminID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	reportID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid report ID", http.StatusBadRequest)
		return
	}

	var report models.Report
	if err := h.db.First(&report, reportID).Error; err != nil {
		http.Error(w, "Report not found", http.StatusNotFound)
		return
	}
	if report.Status == models.ReportResolved {
		utils.RespondWithJSON(w, http.StatusOK, report)
		return
	}

	report.Status = models.ReportResolved

	tx := h.db.Begin()
	if err := tx.Save(&report).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error resolving report", http.StatusInternalServerError)
		return
	}
	if err := h.bus.Publish(tx, events.ReportResolved{
		AdminID:  adminID,
		ReportID: report.ID,
	}); err != nil {
		tx.Rollback()
		http.Error(w, "Error resolving report", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error resolving report", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, report)
}

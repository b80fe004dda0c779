package event

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

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

	router.HandleFunc("/events", auth(h.CreateEvent)).Methods("POST")
	router.HandleFunc("/events", h.GetEvents).Methods("GET")
	router.HandleFunc("/events/{id}", h.GetEvent).Methods("GET")
	router.HandleFunc("/events/{id}", auth(h.UpdateEvent)).Methods("PUT")
	router.HandleFunc("/events/{id}", auth(h.DeleteEvent)).Methods("DELETE")
	router.HandleFunc("/events/{id}/rsvp", auth(h.RSVP)).Methods("POST")
	router.HandleFunc("/events/{id}/rsvp", auth(h.CancelRSVP)).Methods("DELETE")
	router.HandleFunc("/events/{id}/participants", h.GetParticipants).Methods("GET")
}

type eventRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	StartsAt    string  `json:"starts_at"`
	Capacity    int     `json:"capacity"`
	TicketType  string  `json:"ticket_type"`
	Price       float64 `json:"price"`
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body eventRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.Title == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}

	ticketType := body.TicketType
	if ticketType == "" {
		ticketType = models.TicketFree
	}
	if ticketType != models.TicketFree && ticketType != models.TicketPaid {
		http.Error(w, "Invalid ticket type", http.StatusBadRequest)
		return
	}
	if ticketType == models.TicketPaid && body.Price <= 0 {
		http.Error(w, "A paid event must have a price greater than zero", http.StatusBadRequest)
		return
	}

	event := models.Event{
		UserID:      userID,
		Title:       body.Title,
		Description: body.Description,
		Location:    body.Location,
		Capacity:    body.Capacity,
		TicketType:  ticketType,
		Price:       body.Price,
	}

	if body.StartsAt != "" {
		startsAt, err := time.Parse(time.RFC3339, body.StartsAt)
		if err != nil {
			http.Error(w, "Invalid starts_at, use RFC3339", http.StatusBadRequest)
			return
		}
		event.StartsAt = startsAt
	}

	if event.Location != "" {
		if lat, lon, err := geocodeAddress(event.Location); err != nil {
			log.Printf("geocode failed for %q: %v", event.Location, err)
		} else {
			event.Latitude = lat
			event.Longitude = lon
		}
	}

	if err := h.db.Create(&event).Error; err != nil {
		http.Error(w, "Error creating event", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, event)
}

func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	page, perPage := utils.ParsePaginationParams(r)

	query := h.db.Model(&models.Event{}).Preload("User")

	if upcoming := r.URL.Query().Get("upcoming"); upcoming == "true" {
		query = query.Where("starts_at > ?", time.Now())
	}
	if owner := r.URL.Query().Get("owner"); owner != "" {
		query = query.Where("user_id = ?", owner)
	}

	var total int64
	query.Count(&total)

	var eventList []models.Event
	if err := query.Offset((page - 1) * perPage).Limit(perPage).Order("starts_at ASC").Find(&eventList).Error; err != nil {
		http.Error(w, "Error retrieving events", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"events":     eventList,
		"pagination": utils.NewPaginationMeta(page, perPage, total),
	})
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid event ID", http.StatusBadRequest)
		return
	}

	var event models.Event
	result := h.db.Preload("User").Preload("Participants.User").First(&event, eventID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			http.Error(w, "Event not found", http.StatusNotFound)
		} else {
			http.Error(w, "Error retrieving event", http.StatusInternalServerError)
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, event)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid event ID", http.StatusBadRequest)
		return
	}

	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var event models.Event
	if err := h.db.First(&event, eventID).Error; err != nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}
	if event.UserID != userID {
		http.Error(w, "You do not own this event", http.StatusForbidden)
		return
	}

	var body eventRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if body.Title != "" {
		event.Title = body.Title
	}
	if body.Description != "" {
		event.Description = body.Description
	}
	if body.Capacity != 0 {
		event.Capacity = body.Capacity
	}
	if body.StartsAt != "" {
		startsAt, err := time.Parse(time.RFC3339, body.StartsAt)
		if err != nil {
			http.Error(w, "Invalid starts_at, use RFC3339", http.StatusBadRequest)
			return
		}
		event.StartsAt = startsAt
	}
	if body.Location != "" && body.Location != event.Location {
		event.Location = body.Location
		if lat, lon, err := geocodeAddress(body.Location); err != nil {
			log.Printf("geocode failed for %q: %v", body.Location, err)
		} else {
			event.Latitude = lat
			event.Longitude = lon
		}
	}

	if err := h.db.Save(&event).Error; err != nil {
		http.Error(w, "Error updating event", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, event)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid event ID", http.StatusBadRequest)
		return
	}

	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var event models.Event
	if err := h.db.First(&event, eventID).Error; err != nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}
	if event.UserID != userID && utils.GetUserRoleFromContext(r.Context()) != models.RoleAdmin {
		http.Error(w, "You do not own this event", http.StatusForbidden)
		return
	}

	tx := h.db.Begin()
	if err := tx.Where("event_id = ?", eventID).Delete(&models.EventParticipant{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error deleting participants", http.StatusInternalServerError)
		return
	}
	if err := tx.Where("item_type = ? AND item_id = ?", models.ItemTypeEvent, eventID).Delete(&models.CartItem{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error removing cart items", http.StatusInternalServerError)
		return
	}
	if err := tx.Where("item_type = ? AND item_id = ?", models.ItemTypeEvent, eventID).Delete(&models.Favorite{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error removing favorites", http.StatusInternalServerError)
		return
	}
	if err := tx.Delete(&event).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error deleting event", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error deleting event", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Event deleted successfully",
	})
}

// RSVP sets the caller's participation to going or interested. A user is
// in at most one of the two sets; repeating a status is a no-op.
func (h *Handler) RSVP(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid event ID", http.StatusBadRequest)
		return
	}

	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.Status != models.ParticipantGoing && body.Status != models.ParticipantInterested {
		http.Error(w, "Status must be 'going' or 'interested'", http.StatusBadRequest)
		return
	}

	var event models.Event
	if err := h.db.First(&event, eventID).Error; err != nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}

	var participant models.EventParticipant
	err = h.db.Where("event_id = ? AND user_id = ?", eventID, userID).First(&participant).Error
	switch {
	case err == nil:
		participant.Status = body.Status
		if err := h.db.Save(&participant).Error; err != nil {
			http.Error(w, "Error updating RSVP", http.StatusInternalServerError)
			return
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		participant = models.EventParticipant{
			EventID: uint(eventID),
			UserID:  userID,
			Status:  body.Status,
		}
		if err := h.db.Create(&participant).Error; err != nil {
			http.Error(w, "Error saving RSVP", http.StatusInternalServerError)
			return
		}
	default:
		http.Error(w, "Error saving RSVP", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, participant)
}

func (h *Handler) CancelRSVP(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid event ID", http.StatusBadRequest)
		return
	}

	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	result := h.db.Where("event_id = ? AND user_id = ?", eventID, userID).Delete(&models.EventParticipant{})
	if result.Error != nil {
		http.Error(w, "Error cancelling RSVP", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "No RSVP for this event", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "RSVP cancelled",
	})
}

func (h *Handler) GetParticipants(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid event ID", http.StatusBadRequest)
		return
	}

	query := h.db.Model(&models.EventParticipant{}).Where("event_id = ?", eventID).Preload("User")
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var participants []models.EventParticipant
	if err := query.Find(&participants).Error; err != nil {
		http.Error(w, "Error retrieving participants", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, participants)
}

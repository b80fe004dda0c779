package message

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/artcorner/art-corner-server/cmd/models"
	"github.com/artcorner/art-corner-server/cmd/utils"
	"github.com/artcorner/art-corner-server/service/events"
	"github.com/artcorner/art-corner-server/service/ws"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type Handler struct {
	db  *gorm.DB
	bus *events.Bus
	hub *ws.Hub
}

func NewHandler(db *gorm.DB, bus *events.Bus, hub *ws.Hub) *Handler {
	return &Handler{db: db, bus: bus, hub: hub}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	auth := utils.AuthMiddleware(h.db)

	router.HandleFunc("/messages", auth(h.SendMessage)).Methods("POST")
	router.HandleFunc("/messages/conversations", auth(h.GetConversations)).Methods("GET")
	router.HandleFunc("/messages/{userId}", auth(h.GetConversation)).Methods("GET")
	router.HandleFunc("/messages/{id}", auth(h.DeleteMessage)).Methods("DELETE")
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	senderID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	receiverID, err := strconv.ParseUint(r.FormValue("receiver_id"), 10, 64)
	if err != nil || uint(receiverID) == senderID {
		http.Error(w, "Invalid receiver", http.StatusBadRequest)
		return
	}
	content := r.FormValue("content")
	files := r.MultipartForm.File["attachments"]
	if content == "" && len(files) == 0 {
		http.Error(w, "Message content is required", http.StatusBadRequest)
		return
	}

	var receiver models.User
	if err := h.db.First(&receiver, receiverID).Error; err != nil {
		http.Error(w, "Receiver not found", http.StatusNotFound)
		return
	}

	// A block in either direction closes the conversation.
	var blocks int64
	h.db.Model(&models.UserBlock{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
			receiverID, senderID, senderID, receiverID).
		Count(&blocks)
	if blocks > 0 {
		http.Error(w, "You cannot message this user", http.StatusForbidden)
		return
	}

	var sender models.User
	if err := h.db.First(&sender, senderID).Error; err != nil {
		http.Error(w, "Error loading sender", http.StatusInternalServerError)
		return
	}

	message := models.Message{
		SenderID:   senderID,
		ReceiverID: uint(receiverID),
		Content:    content,
	}

	tx := h.db.Begin()
	if err := tx.Create(&message).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error sending message", http.StatusInternalServerError)
		return
	}

	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			tx.Rollback()
			http.Error(w, "Error reading attachment", http.StatusBadRequest)
			return
		}

		url, kind, err := utils.SaveMedia(file, fileHeader)
		file.Close()
		if err != nil {
			tx.Rollback()
			http.Error(w, "Error saving attachment", http.StatusInternalServerError)
			return
		}
		attachment := models.MessageAttachment{
			MessageID: message.ID,
			URL:       url,
			Kind:      kind,
		}
		if err := tx.Create(&attachment).Error; err != nil {
			tx.Rollback()
			http.Error(w, "Error saving attachment", http.StatusInternalServerError)
			return
		}
	}

	if err := h.bus.Publish(tx, events.MessageSent{
		SenderID:   senderID,
		SenderName: sender.FullName,
		ReceiverID: uint(receiverID),
		MessageID:  message.ID,
	}); err != nil {
		tx.Rollback()
		http.Error(w, "Error sending message", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error sending message", http.StatusInternalServerError)
		return
	}

	h.db.Preload("Sender").Preload("Receiver").Preload("Attachments").First(&message, message.ID)
	if h.hub != nil {
		h.hub.DeliverMessage(&message)
	}

	utils.RespondWithJSON(w, http.StatusCreated, message)
}

// GetConversation returns the message history with one peer, newest
// page first. Messages addressed to the caller are marked read.
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	peerID, err := strconv.ParseUint(mux.Vars(r)["userId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	page, perPage := utils.ParsePaginationParams(r)

	query := h.db.Where(
		"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
		userID, peerID, peerID, userID,
	)

	var total int64
	if err := query.Model(&models.Message{}).Count(&total).Error; err != nil {
		http.Error(w, "Error retrieving messages", http.StatusInternalServerError)
		return
	}

	var messages []models.Message
	if err := query.
		Preload("Sender").Preload("Receiver").Preload("Attachments").
		Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&messages).Error; err != nil {
		http.Error(w, "Error retrieving messages", http.StatusInternalServerError)
		return
	}

	if err := h.db.Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", peerID, userID, false).
		Update("is_read", true).Error; err != nil {
		log.Printf("marking conversation %d/%d read: %v", userID, peerID, err)
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"messages":   messages,
		"pagination": utils.NewPaginationMeta(page, perPage, total),
	})
}

type conversationSummary struct {
	Peer        *models.User   `json:"peer"`
	LastMessage models.Message `json:"last_message"`
	UnreadCount int64          `json:"unread_count"`
}

// GetConversations lists the caller's conversations, one entry per
// peer, ordered by most recent activity.
func (h *Handler) GetConversations(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var messages []models.Message
	if err := h.db.Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Preload("Sender").Preload("Receiver").
		Order("created_at DESC").
		Find(&messages).Error; err != nil {
		http.Error(w, "Error retrieving conversations", http.StatusInternalServerError)
		return
	}

	seen := make(map[uint]bool)
	summaries := make([]conversationSummary, 0)
	for _, msg := range messages {
		peerID := msg.ReceiverID
		peer := msg.Receiver
		if msg.ReceiverID == userID {
			peerID = msg.SenderID
			peer = msg.Sender
		}
		if seen[peerID] {
			continue
		}
		seen[peerID] = true

		var unread int64
		h.db.Model(&models.Message{}).
			Where("sender_id = ? AND receiver_id = ? AND is_read = ?", peerID, userID, false).
			Count(&unread)

		summaries = append(summaries, conversationSummary{
			Peer:        peer,
			LastMessage: msg,
			UnreadCount: unread,
		})
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"conversations": summaries,
	})
}

func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	messageID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid message ID", http.StatusBadRequest)
		return
	}

	var message models.Message
	if err := h.db.First(&message, messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Message not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Error retrieving message", http.StatusInternalServerError)
		return
	}
	if message.SenderID != userID {
		http.Error(w, "You can only delete your own messages", http.StatusForbidden)
		return
	}

	tx := h.db.Begin()
	if err := tx.Where("message_id = ?", message.ID).Delete(&models.MessageAttachment{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error deleting message", http.StatusInternalServerError)
		return
	}
	if err := tx.Delete(&message).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error deleting message", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error deleting message", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Message deleted successfully",
	})
}

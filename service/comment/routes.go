package comment

import (
	"encoding/json"
	"errors"
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

	router.HandleFunc("/comments", auth(h.CreateComment)).Methods("POST")
	router.HandleFunc("/comments/{resourceType}/{resourceId}", h.GetThread).Methods("GET")
	router.HandleFunc("/comments/{id}", auth(h.UpdateComment)).Methods("PUT")
	router.HandleFunc("/comments/{id}", auth(h.DeleteComment)).Methods("DELETE")
	router.HandleFunc("/comments/{id}/like", auth(h.React(models.ReactionLike))).Methods("POST")
	router.HandleFunc("/comments/{id}/dislike", auth(h.React(models.ReactionDislike))).Methods("POST")
}

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		ResourceType models.ResourceType `json:"resource_type"`
		ResourceID   uint                `json:"resource_id"`
		ParentID     *uint               `json:"parent_id"`
		Content      string              `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.Content == "" {
		http.Error(w, "Content is required", http.StatusBadRequest)
		return
	}

	comment := models.Comment{
		UserID:       userID,
		ResourceType: body.ResourceType,
		ResourceID:   body.ResourceID,
		ParentID:     body.ParentID,
		Content:      body.Content,
	}

	// A reply always inherits its parent's resource coordinates. Depth
	// is not checked here; display assembly flattens deep chains.
	if body.ParentID != nil {
		var parent models.Comment
		if err := h.db.First(&parent, *body.ParentID).Error; err != nil {
			http.Error(w, "Parent comment not found", http.StatusNotFound)
			return
		}
		comment.ResourceType = parent.ResourceType
		comment.ResourceID = parent.ResourceID
	} else if !models.ValidResourceType(body.ResourceType) {
		http.Error(w, "Invalid resource type", http.StatusBadRequest)
		return
	}

	if err := h.db.Create(&comment).Error; err != nil {
		http.Error(w, "Error creating comment", http.StatusInternalServerError)
		return
	}

	h.db.Preload("User").First(&comment, comment.ID)
	utils.RespondWithJSON(w, http.StatusCreated, comment)
}

// GetThread returns the assembled one-level comment tree for a resource.
func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	resourceType := models.ResourceType(vars["resourceType"])
	if !models.ValidResourceType(resourceType) {
		http.Error(w, "Invalid resource type", http.StatusBadRequest)
		return
	}
	resourceID, err := strconv.ParseUint(vars["resourceId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid resource ID", http.StatusBadRequest)
		return
	}

	var comments []models.Comment
	if err := h.db.Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Preload("User").Preload("Reactions").
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		http.Error(w, "Error retrieving comments", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, buildThread(comments))
}

func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	commentID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid comment ID", http.StatusBadRequest)
		return
	}

	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var comment models.Comment
	if err := h.db.First(&comment, commentID).Error; err != nil {
		http.Error(w, "Comment not found", http.StatusNotFound)
		return
	}
	if comment.UserID != userID {
		http.Error(w, "You do not own this comment", http.StatusForbidden)
		return
	}

	comment.Content = body.Content
	if err := h.db.Save(&comment).Error; err != nil {
		http.Error(w, "Error updating comment", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, comment)
}

// DeleteComment removes a comment; deleting a top-level comment also
// removes its direct replies. The cascade is single-level: replies of
// replies are orphaned, not deleted.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	commentID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid comment ID", http.StatusBadRequest)
		return
	}

	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var comment models.Comment
	if err := h.db.First(&comment, commentID).Error; err != nil {
		http.Error(w, "Comment not found", http.StatusNotFound)
		return
	}
	if comment.UserID != userID && utils.GetUserRoleFromContext(r.Context()) != models.RoleAdmin {
		http.Error(w, "You do not own this comment", http.StatusForbidden)
		return
	}

	tx := h.db.Begin()

	if comment.ParentID == nil {
		var childIDs []uint
		if err := tx.Model(&models.Comment{}).Where("parent_id = ?", comment.ID).
			Pluck("id", &childIDs).Error; err != nil {
			tx.Rollback()
			http.Error(w, "Error deleting replies", http.StatusInternalServerError)
			return
		}
		if len(childIDs) > 0 {
			if err := tx.Where("comment_id IN ?", childIDs).Delete(&models.CommentReaction{}).Error; err != nil {
				tx.Rollback()
				http.Error(w, "Error deleting reply reactions", http.StatusInternalServerError)
				return
			}
			if err := tx.Where("id IN ?", childIDs).Delete(&models.Comment{}).Error; err != nil {
				tx.Rollback()
				http.Error(w, "Error deleting replies", http.StatusInternalServerError)
				return
			}
		}
	}

	if err := tx.Where("comment_id = ?", comment.ID).Delete(&models.CommentReaction{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error deleting reactions", http.StatusInternalServerError)
		return
	}
	if err := tx.Delete(&comment).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error deleting comment", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error deleting comment", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Comment deleted successfully",
	})
}

// React toggles a like or dislike. Repeating the same reaction removes
// it; the opposite reaction replaces it.
func (h *Handler) React(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		commentID, err := strconv.ParseUint(vars["id"], 10, 64)
		if err != nil {
			http.Error(w, "Invalid comment ID", http.StatusBadRequest)
			return
		}

		userID, err := utils.GetUserIDFromContext(r.Context())
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var comment models.Comment
		if err := h.db.First(&comment, commentID).Error; err != nil {
			http.Error(w, "Comment not found", http.StatusNotFound)
			return
		}

		var reaction models.CommentReaction
		err = h.db.Where("comment_id = ? AND user_id = ?", commentID, userID).First(&reaction).Error
		switch {
		case err == nil:
			if reaction.Kind == kind {
				if err := h.db.Delete(&reaction).Error; err != nil {
					http.Error(w, "Error removing reaction", http.StatusInternalServerError)
					return
				}
				utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Reaction removed"})
				return
			}
			reaction.Kind = kind
			if err := h.db.Save(&reaction).Error; err != nil {
				http.Error(w, "Error updating reaction", http.StatusInternalServerError)
				return
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			reaction = models.CommentReaction{
				CommentID: uint(commentID),
				UserID:    userID,
				Kind:      kind,
			}
			if err := h.db.Create(&reaction).Error; err != nil {
				http.Error(w, "Error saving reaction", http.StatusInternalServerError)
				return
			}
		default:
			http.Error(w, "Error saving reaction", http.StatusInternalServerError)
			return
		}

		utils.RespondWithJSON(w, http.StatusOK, reaction)
	}
}

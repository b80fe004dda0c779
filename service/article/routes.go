package article

import (
	"encoding/json"
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

	router.HandleFunc("/articles", auth(h.CreateArticle)).Methods("POST")
	router.HandleFunc("/articles", h.GetArticles).Methods("GET")
	router.HandleFunc("/articles/{id}", h.GetArticle).Methods("GET")
	router.HandleFunc("/articles/{id}", auth(h.UpdateArticle)).Methods("PUT")
	router.HandleFunc("/articles/{id}", auth(h.DeleteArticle)).Methods("DELETE")
}

func (h *Handler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		Title     string `json:"title"`
		Category  string `json:"category"`
		Content   string `json:"content"`
		CoverPath string `json:"cover_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.Title == "" || body.Content == "" {
		http.Error(w, "Title and content are required", http.StatusBadRequest)
		return
	}
	if !models.ValidArticleCategory(body.Category) {
		http.Error(w, "Invalid category", http.StatusBadRequest)
		return
	}

	article := models.Article{
		UserID:    userID,
		Title:     body.Title,
		Category:  body.Category,
		Content:   body.Content,
		CoverPath: body.CoverPath,
	}

	if err := h.db.Create(&article).Error; err != nil {
		http.Error(w, "Error creating article", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, article)
}

func (h *Handler) GetArticles(w http.ResponseWriter, r *http.Request) {
	page, perPage := utils.ParsePaginationParams(r)

	query := h.db.Model(&models.Article{}).Preload("User")
	if category := r.URL.Query().Get("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if owner := r.URL.Query().Get("owner"); owner != "" {
		query = query.Where("user_id = ?", owner)
	}

	var total int64
	query.Count(&total)

	var articles []models.Article
	if err := query.Offset((page - 1) * perPage).Limit(perPage).Order("created_at DESC").Find(&articles).Error; err != nil {
		http.Error(w, "Error retrieving articles", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"articles":   articles,
		"pagination": utils.NewPaginationMeta(page, perPage, total),
	})
}

func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	articleID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid article ID", http.StatusBadRequest)
		return
	}

	var article models.Article
	if err := h.db.Preload("User").First(&article, articleID).Error; err != nil {
		http.Error(w, "Article not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, article)
}

func (h *Handler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	articleID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid article ID", http.StatusBadRequest)
		return
	}

	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var article models.Article
	if err := h.db.First(&article, articleID).Error; err != nil {
		http.Error(w, "Article not found", http.StatusNotFound)
		return
	}
	if article.UserID != userID {
		http.Error(w, "You do not own this article", http.StatusForbidden)
		return
	}

	var body struct {
		Title     string `json:"title"`
		Category  string `json:"category"`
		Content   string `json:"content"`
		CoverPath string `json:"cover_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if body.Title != "" {
		article.Title = body.Title
	}
	if body.Category != "" {
		if !models.ValidArticleCategory(body.Category) {
			http.Error(w, "Invalid category", http.StatusBadRequest)
			return
		}
		article.Category = body.Category
	}
	if body.Content != "" {
		article.Content = body.Content
	}
	if body.CoverPath != "" {
		article.CoverPath = body.CoverPath
	}

	if err := h.db.Save(&article).Error; err != nil {
		http.Error(w, "Error updating article", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, article)
}

func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	articleID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid article ID", http.StatusBadRequest)
		return
	}

	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var article models.Article
	if err := h.db.First(&article, articleID).Error; err != nil {
		http.Error(w, "Article not found", http.StatusNotFound)
		return
	}
	if article.UserID != userID && utils.GetUserRoleFromContext(r.Context()) != models.RoleAdmin {
		http.Error(w, "You do not own this article", http.StatusForbidden)
		return
	}

	tx := h.db.Begin()
	if err := tx.Where("article_id = ?", articleID).Delete(&models.FavoriteArticle{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error removing favorites", http.StatusInternalServerError)
		return
	}
	if err := tx.Delete(&article).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error deleting article", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error deleting article", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Article deleted successfully",
	})
}

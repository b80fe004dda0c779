package user

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/artcorner/art-corner-server/cmd/models"
	"github.com/artcorner/art-corner-server/cmd/utils"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// RegisterRoutes sets up all user-related routes
func (h *Handler) RegisterRoutes(router *mux.Router) {
	auth := utils.AuthMiddleware(h.db)

	router.HandleFunc("/register", h.HandleRegister).Methods("POST")
	router.HandleFunc("/login", h.handleLogin).Methods("POST")
	router.HandleFunc("/logout", h.handleLogout).Methods("POST")
	router.HandleFunc("/user/verify", h.verifyUser).Methods("POST")
	router.HandleFunc("/users", h.GetUsers).Methods("GET")
	router.HandleFunc("/users/me", auth(h.GetMe)).Methods("GET")
	router.HandleFunc("/users/{id}", h.GetUser).Methods("GET")
	router.HandleFunc("/users/{id}", auth(h.UpdateUser)).Methods("PUT")
	router.HandleFunc("/users/{id}", auth(h.DeleteOwnAccount)).Methods("DELETE")
	router.HandleFunc("/users/{id}/password", auth(h.ChangePassword)).Methods("PUT")
	router.HandleFunc("/users/{id}/block", auth(h.BlockUser)).Methods("POST")
	router.HandleFunc("/users/{id}/block", auth(h.UnblockUser)).Methods("DELETE")
	router.HandleFunc("/users/me/blocked", auth(h.GetBlockedUsers)).Methods("GET")
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var registerRequest struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Bio      string `json:"bio"`
		Address  string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&registerRequest); err != nil {
		http.Error(w, "Invalid JSON input", http.StatusBadRequest)
		return
	}

	if registerRequest.FullName == "" || registerRequest.Email == "" || registerRequest.Password == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}
	if len(registerRequest.Password) < 6 {
		http.Error(w, "Password must be at least 6 characters long", http.StatusBadRequest)
		return
	}

	var existing models.User
	if result := h.db.Where("email = ?", registerRequest.Email).First(&existing); !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		if result.Error != nil {
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
		http.Error(w, "Email is already in use", http.StatusConflict)
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(registerRequest.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Error hashing password", http.StatusInternalServerError)
		return
	}

	verificationCode := fmt.Sprintf("%06d", rand.Intn(1000000))

	// Signup always creates a plain user; admins come from the
	// bootstrap-admin command, never from this path.
	user := models.User{
		FullName:              registerRequest.FullName,
		Email:                 registerRequest.Email,
		PasswordHash:          string(passwordHash),
		Role:                  models.RoleUser,
		Bio:                   registerRequest.Bio,
		Address:               registerRequest.Address,
		EmailVerificationCode: verificationCode,
		VerificationExpiry:    time.Now().Add(15 * time.Minute),
	}

	if err := h.db.Create(&user).Error; err != nil {
		http.Error(w, "Error registering user", http.StatusInternalServerError)
		return
	}

	go func() {
		body := fmt.Sprintf("Your verification code is: %s. Ignore this email if you did not sign up.", verificationCode)
		if err := utils.SendMail(user.Email, "Email Verification Code", body); err != nil {
			log.Printf("Error sending verification email: %v", err)
		}
	}()

	utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User registered successfully. Please check your email for verification code.",
		"user_id": user.ID,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&loginRequest); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var user models.User
	result := h.db.Where("email = ?", loginRequest.Email).First(&user)
	if result.Error != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(loginRequest.Password)); err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if user.IsBlocked {
		http.Error(w, "Account is blocked", http.StatusForbidden)
		return
	}

	token, err := utils.GenerateSessionToken(user.ID)
	if err != nil {
		http.Error(w, "Error generating session", http.StatusInternalServerError)
		return
	}
	utils.SetSessionCookie(w, token)

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"user_id": user.ID,
		"role":    user.Role,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	utils.ClearSessionCookie(w)
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out",
	})
}

func (h *Handler) verifyUser(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var user models.User
	if err := h.db.Where("email = ?", request.Email).First(&user).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	if user.EmailVerificationCode != request.Code || time.Now().After(user.VerificationExpiry) {
		http.Error(w, "Invalid or expired verification code", http.StatusUnauthorized)
		return
	}

	user.EmailVerified = true
	user.EmailVerificationCode = ""
	user.VerificationExpiry = time.Time{}

	if err := models.SaveUserVersioned(h.db, &user); err != nil {
		http.Error(w, "Error updating user", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Email verified successfully",
	})
}

// GetUsers retrieves users with pagination and an optional search term.
func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request) {
	page, perPage := utils.ParsePaginationParams(r)

	query := h.db.Model(&models.User{}).Where("is_blocked = ?", false)
	if q := r.URL.Query().Get("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where("full_name LIKE ? OR bio LIKE ?", like, like)
	}

	var total int64
	query.Count(&total)

	var users []models.User
	if err := query.Offset((page - 1) * perPage).Limit(perPage).Find(&users).Error; err != nil {
		http.Error(w, "Error retrieving users", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"users":      users,
		"pagination": utils.NewPaginationMeta(page, perPage, total),
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, user)
}

// GetUser retrieves a specific user by ID
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, user)
}

// UpdateUser updates the caller's own profile.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	targetID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	callerID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if callerID != uint(targetID) {
		http.Error(w, "You can only update your own profile", http.StatusForbidden)
		return
	}

	var updateData struct {
		FullName   string `json:"full_name"`
		Bio        string `json:"bio"`
		Address    string `json:"address"`
		AvatarPath string `json:"avatar_path"`
		CoverPath  string `json:"cover_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&updateData); err != nil {
		http.Error(w, "Invalid JSON input", http.StatusBadRequest)
		return
	}

	// Versioned save; one retry on a concurrent write.
	for attempt := 0; attempt < 2; attempt++ {
		var user models.User
		if err := h.db.First(&user, callerID).Error; err != nil {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}

		if updateData.FullName != "" {
			user.FullName = updateData.FullName
		}
		if updateData.Bio != "" {
			user.Bio = updateData.Bio
		}
		if updateData.Address != "" {
			user.Address = updateData.Address
		}
		if updateData.AvatarPath != "" {
			user.AvatarPath = updateData.AvatarPath
		}
		if updateData.CoverPath != "" {
			user.CoverPath = updateData.CoverPath
		}

		err := models.SaveUserVersioned(h.db, &user)
		if err == nil {
			utils.RespondWithJSON(w, http.StatusOK, user)
			return
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Error updating user", http.StatusInternalServerError)
			return
		}
		// version conflict, re-read and retry
	}
	http.Error(w, "Profile was modified concurrently, please retry", http.StatusConflict)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	targetID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	callerID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil || callerID != uint(targetID) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(body.NewPassword) < 6 {
		http.Error(w, "Password must be at least 6 characters long", http.StatusBadRequest)
		return
	}

	var user models.User
	if err := h.db.First(&user, callerID).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.CurrentPassword)); err != nil {
		http.Error(w, "Current password is incorrect", http.StatusUnauthorized)
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Error hashing password", http.StatusInternalServerError)
		return
	}
	user.PasswordHash = string(passwordHash)

	if err := models.SaveUserVersioned(h.db, &user); err != nil {
		http.Error(w, "Error updating password", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Password changed successfully",
	})
}

// DeleteOwnAccount lets a user delete themselves. The admin cascade
// delete lives in the admin service.
func (h *Handler) DeleteOwnAccount(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	targetID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	callerID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil || callerID != uint(targetID) {
		http.Error(w, "You can only delete your own account", http.StatusForbidden)
		return
	}

	if err := h.db.Delete(&models.User{}, callerID).Error; err != nil {
		http.Error(w, "Error deleting user", http.StatusInternalServerError)
		return
	}
	utils.ClearSessionCookie(w)

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Account deleted",
	})
}

// BlockUser adds the target to the caller's personal block list.
func (h *Handler) BlockUser(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	targetID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	callerID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if callerID == uint(targetID) {
		http.Error(w, "You cannot block yourself", http.StatusBadRequest)
		return
	}

	var target models.User
	if err := h.db.First(&target, targetID).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	var existing models.UserBlock
	if err := h.db.Where("blocker_id = ? AND blocked_id = ?", callerID, targetID).First(&existing).Error; err == nil {
		http.Error(w, "User already blocked", http.StatusConflict)
		return
	}

	block := models.UserBlock{BlockerID: callerID, BlockedID: uint(targetID)}
	if err := h.db.Create(&block).Error; err != nil {
		http.Error(w, "Error blocking user", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "User blocked",
	})
}

func (h *Handler) UnblockUser(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	targetID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	callerID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	result := h.db.Where("blocker_id = ? AND blocked_id = ?", callerID, targetID).Delete(&models.UserBlock{})
	if result.Error != nil {
		http.Error(w, "Error unblocking user", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "User was not blocked", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "User unblocked",
	})
}

func (h *Handler) GetBlockedUsers(w http.ResponseWriter, r *http.Request) {
	callerID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var blocks []models.UserBlock
	if err := h.db.Where("blocker_id = ?", callerID).Preload("Blocked").Find(&blocks).Error; err != nil {
		http.Error(w, "Error retrieving blocked users", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, blocks)
}

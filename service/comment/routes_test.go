package comment

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/artcorner/art-corner-server/cmd/models"
	"github.com/artcorner/art-corner-server/cmd/utils"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	err = db.AutoMigrate(&models.User{}, &models.Comment{}, &models.CommentReaction{})
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func authedRequest(method, target string, body []byte, userID uint, role string, vars map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := context.WithValue(req.Context(), utils.UserIDKey, userID)
	ctx = context.WithValue(ctx, utils.UserRoleKey, role)
	req = req.WithContext(ctx)
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func seedComment(t *testing.T, db *gorm.DB, userID uint, parentID *uint) models.Comment {
	c := models.Comment{
		UserID:       userID,
		ResourceType: models.ResourceProduct,
		ResourceID:   1,
		ParentID:     parentID,
		Content:      "hello",
	}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func TestCreateReplyInheritsParentResource(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db)

	user := models.User{FullName: "u", Email: "u@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	parent := models.Comment{
		UserID:       user.ID,
		ResourceType: models.ResourceArticle,
		ResourceID:   7,
		Content:      "root",
	}
	require.NoError(t, db.Create(&parent).Error)

	// The submitted resource coordinates disagree with the parent's;
	// the parent wins.
	body := []byte(fmt.Sprintf(
		`{"resource_type":"Product","resource_id":999,"parent_id":%d,"content":"reply"}`,
		parent.ID))
	rec := httptest.NewRecorder()
	h.CreateComment(rec, authedRequest("POST", "/comments", body, user.ID, models.RoleUser, nil))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var reply models.Comment
	require.NoError(t, db.Where("parent_id = ?", parent.ID).First(&reply).Error)
	assert.Equal(t, models.ResourceArticle, reply.ResourceType)
	assert.Equal(t, uint(7), reply.ResourceID)
}

func TestDeleteTopLevelCascadesOneLevel(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db)

	user := models.User{FullName: "u", Email: "u@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	root := seedComment(t, db, user.ID, nil)
	reply := seedComment(t, db, user.ID, &root.ID)
	// Second-level reply: its parent chain passes through reply, but a
	// delete of root must not reach it.
	grandchild := seedComment(t, db, user.ID, &reply.ID)

	rec := httptest.NewRecorder()
	h.DeleteComment(rec, authedRequest("DELETE", "/comments/1", nil, user.ID, models.RoleUser,
		map[string]string{"id": fmt.Sprint(root.ID)}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var count int64
	db.Model(&models.Comment{}).Where("id IN ?", []uint{root.ID, reply.ID}).Count(&count)
	assert.Equal(t, int64(0), count, "root and its direct replies are gone")

	var survivor models.Comment
	assert.NoError(t, db.First(&survivor, grandchild.ID).Error, "second-level reply survives")
}

func TestDeleteCommentRequiresOwnership(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db)

	owner := models.User{FullName: "o", Email: "o@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&owner).Error)
	stranger := models.User{FullName: "s", Email: "s@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&stranger).Error)

	c := seedComment(t, db, owner.ID, nil)

	rec := httptest.NewRecorder()
	h.DeleteComment(rec, authedRequest("DELETE", "/comments/1", nil, stranger.ID, models.RoleUser,
		map[string]string{"id": fmt.Sprint(c.ID)}))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// An admin may delete anyone's comment.
	rec = httptest.NewRecorder()
	h.DeleteComment(rec, authedRequest("DELETE", "/comments/1", nil, stranger.ID, models.RoleAdmin,
		map[string]string{"id": fmt.Sprint(c.ID)}))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReactionToggleAndSwitch(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db)

	user := models.User{FullName: "u", Email: "u@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	c := seedComment(t, db, user.ID, nil)
	vars := map[string]string{"id": fmt.Sprint(c.ID)}

	// Like.
	rec := httptest.NewRecorder()
	h.React(models.ReactionLike)(rec, authedRequest("POST", "/comments/1/like", nil, user.ID, models.RoleUser, vars))
	require.Equal(t, http.StatusOK, rec.Code)

	var reaction models.CommentReaction
	require.NoError(t, db.Where("comment_id = ? AND user_id = ?", c.ID, user.ID).First(&reaction).Error)
	assert.Equal(t, models.ReactionLike, reaction.Kind)

	// Switch to dislike: same row, new kind.
	rec = httptest.NewRecorder()
	h.React(models.ReactionDislike)(rec, authedRequest("POST", "/comments/1/dislike", nil, user.ID, models.RoleUser, vars))
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	db.Model(&models.CommentReaction{}).Where("comment_id = ?", c.ID).Count(&count)
	assert.Equal(t, int64(1), count)
	require.NoError(t, db.Where("comment_id = ? AND user_id = ?", c.ID, user.ID).First(&reaction).Error)
	assert.Equal(t, models.ReactionDislike, reaction.Kind)

	// Same reaction again removes it.
	rec = httptest.NewRecorder()
	h.React(models.ReactionDislike)(rec, authedRequest("POST", "/comments/1/dislike", nil, user.ID, models.RoleUser, vars))
	require.Equal(t, http.StatusOK, rec.Code)

	db.Model(&models.CommentReaction{}).Where("comment_id = ?", c.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

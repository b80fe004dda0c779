package gallery

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/artcorner/art-corner-server/cmd/models"
	"github.com/artcorner/art-corner-server/cmd/utils"
	"github.com/artcorner/art-corner-server/service/events"
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

	err = db.AutoMigrate(
		&models.User{},
		&models.Gallery{},
		&models.GalleryCollaborator{},
		&models.GalleryProduct{},
		&models.Product{},
		&models.Notification{},
		&models.Device{},
		&models.AuditLog{},
		&models.FavoriteGallery{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func authedRequest(method, target string, body []byte, userID uint, vars map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := context.WithValue(req.Context(), utils.UserIDKey, userID)
	ctx = context.WithValue(ctx, utils.UserRoleKey, models.RoleUser)
	req = req.WithContext(ctx)
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func seedUser(t *testing.T, db *gorm.DB, name string) models.User {
	user := models.User{FullName: name, Email: name + "@example.com", PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to seed user %s: %v", name, err)
	}
	return user
}

func collaboratorStatus(t *testing.T, db *gorm.DB, galleryID, userID uint) (string, bool) {
	var row models.GalleryCollaborator
	err := db.Where("gallery_id = ? AND user_id = ?", galleryID, userID).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return "", false
	}
	require.NoError(t, err)
	return row.Status, true
}

func TestUpdateCollaboratorsReconciliation(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db, events.NewDefaultBus())

	owner := seedUser(t, db, "owner")
	a := seedUser(t, db, "alice")
	b := seedUser(t, db, "bob")
	c := seedUser(t, db, "carol")

	gallery := models.Gallery{OwnerID: owner.ID, Title: "Winter Show", IsPublic: true}
	require.NoError(t, db.Create(&gallery).Error)
	require.NoError(t, db.Create(&models.GalleryCollaborator{
		GalleryID: gallery.ID, UserID: a.ID, Status: models.CollaboratorAccepted,
	}).Error)
	require.NoError(t, db.Create(&models.GalleryCollaborator{
		GalleryID: gallery.ID, UserID: c.ID, Status: models.CollaboratorPending,
	}).Error)

	body := []byte(`{"collaborators": [` +
		uintJSON(a.ID) + `,` + uintJSON(b.ID) + `]}`)
	req := authedRequest("PUT", "/galleries/1/collaborators", body, owner.ID,
		map[string]string{"id": uintJSON(gallery.ID)})
	rec := httptest.NewRecorder()
	h.UpdateCollaborators(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	status, ok := collaboratorStatus(t, db, gallery.ID, a.ID)
	assert.True(t, ok)
	assert.Equal(t, models.CollaboratorAccepted, status, "alice stays accepted")

	status, ok = collaboratorStatus(t, db, gallery.ID, b.ID)
	assert.True(t, ok)
	assert.Equal(t, models.CollaboratorPending, status, "bob becomes pending")

	_, ok = collaboratorStatus(t, db, gallery.ID, c.ID)
	assert.False(t, ok, "carol's invite is withdrawn")

	var inviteCount int64
	db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", b.ID, models.NotificationCollabInvite).
		Count(&inviteCount)
	assert.Equal(t, int64(1), inviteCount, "bob gets one invite notification")

	var withdrawnCount int64
	db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", c.ID, models.NotificationCollabWithdrawn).
		Count(&withdrawnCount)
	assert.Equal(t, int64(1), withdrawnCount, "carol is told the invite was withdrawn")

	var aliceCount int64
	db.Model(&models.Notification{}).Where("user_id = ?", a.ID).Count(&aliceCount)
	assert.Equal(t, int64(0), aliceCount, "alice hears nothing")
}

func TestUpdateCollaboratorsResubmitDoesNotRenotify(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db, events.NewDefaultBus())

	owner := seedUser(t, db, "owner")
	b := seedUser(t, db, "bob")

	gallery := models.Gallery{OwnerID: owner.ID, Title: "Spring Show", IsPublic: true}
	require.NoError(t, db.Create(&gallery).Error)

	body := []byte(`{"collaborators": [` + uintJSON(b.ID) + `]}`)
	vars := map[string]string{"id": uintJSON(gallery.ID)}

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.UpdateCollaborators(rec, authedRequest("PUT", "/galleries/1/collaborators", body, owner.ID, vars))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	var inviteCount int64
	db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", b.ID, models.NotificationCollabInvite).
		Count(&inviteCount)
	assert.Equal(t, int64(1), inviteCount)
}

func TestUpdateCollaboratorsMalformedPayloadClearsAll(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db, events.NewDefaultBus())

	owner := seedUser(t, db, "owner")
	a := seedUser(t, db, "alice")

	gallery := models.Gallery{OwnerID: owner.ID, Title: "Show", IsPublic: true}
	require.NoError(t, db.Create(&gallery).Error)
	require.NoError(t, db.Create(&models.GalleryCollaborator{
		GalleryID: gallery.ID, UserID: a.ID, Status: models.CollaboratorAccepted,
	}).Error)

	body := []byte(`{"collaborators": "not-a-list"}`)
	rec := httptest.NewRecorder()
	h.UpdateCollaborators(rec, authedRequest("PUT", "/galleries/1/collaborators", body, owner.ID,
		map[string]string{"id": uintJSON(gallery.ID)}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	_, ok := collaboratorStatus(t, db, gallery.ID, a.ID)
	assert.False(t, ok, "malformed list is treated as empty and removes everyone")
}

func TestUpdateCollaboratorsNonOwnerForbidden(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db, events.NewDefaultBus())

	owner := seedUser(t, db, "owner")
	a := seedUser(t, db, "alice")

	gallery := models.Gallery{OwnerID: owner.ID, Title: "Show", IsPublic: true}
	require.NoError(t, db.Create(&gallery).Error)
	require.NoError(t, db.Create(&models.GalleryCollaborator{
		GalleryID: gallery.ID, UserID: a.ID, Status: models.CollaboratorAccepted,
	}).Error)

	rec := httptest.NewRecorder()
	h.UpdateCollaborators(rec, authedRequest("PUT", "/galleries/1/collaborators",
		[]byte(`{"collaborators": []}`), a.ID, map[string]string{"id": uintJSON(gallery.ID)}))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAcceptInvite(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db, events.NewDefaultBus())

	owner := seedUser(t, db, "owner")
	b := seedUser(t, db, "bob")

	gallery := models.Gallery{OwnerID: owner.ID, Title: "Show", IsPublic: true}
	require.NoError(t, db.Create(&gallery).Error)
	require.NoError(t, db.Create(&models.GalleryCollaborator{
		GalleryID: gallery.ID, UserID: b.ID, Status: models.CollaboratorPending,
	}).Error)

	rec := httptest.NewRecorder()
	h.AcceptInvite(rec, authedRequest("POST", "/galleries/1/collaborators/accept", nil, b.ID,
		map[string]string{"id": uintJSON(gallery.ID)}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	status, ok := collaboratorStatus(t, db, gallery.ID, b.ID)
	assert.True(t, ok)
	assert.Equal(t, models.CollaboratorAccepted, status)

	var ownerNotified int64
	db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", owner.ID, models.NotificationCollabAccepted).
		Count(&ownerNotified)
	assert.Equal(t, int64(1), ownerNotified)
}

func TestDeclineInviteRemovesRow(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db, events.NewDefaultBus())

	owner := seedUser(t, db, "owner")
	b := seedUser(t, db, "bob")

	gallery := models.Gallery{OwnerID: owner.ID, Title: "Show", IsPublic: true}
	require.NoError(t, db.Create(&gallery).Error)
	require.NoError(t, db.Create(&models.GalleryCollaborator{
		GalleryID: gallery.ID, UserID: b.ID, Status: models.CollaboratorPending,
	}).Error)

	rec := httptest.NewRecorder()
	h.DeclineInvite(rec, authedRequest("POST", "/galleries/1/collaborators/decline", nil, b.ID,
		map[string]string{"id": uintJSON(gallery.ID)}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	_, ok := collaboratorStatus(t, db, gallery.ID, b.ID)
	assert.False(t, ok)
}

func TestPrivateGalleryHiddenFromStrangers(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db, events.NewDefaultBus())

	owner := seedUser(t, db, "owner")
	gallery := models.Gallery{OwnerID: owner.ID, Title: "Secret", IsPublic: false}
	require.NoError(t, db.Create(&gallery).Error)

	req := httptest.NewRequest("GET", "/galleries/1", nil)
	req = mux.SetURLVars(req, map[string]string{"id": uintJSON(gallery.ID)})
	rec := httptest.NewRecorder()
	h.GetGallery(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateGalleryPersistsPrivateFlag(t *testing.T) {
	db := setupTestDB(t)
	h := NewHandler(db, events.NewDefaultBus())

	owner := seedUser(t, db, "owner")

	rec := httptest.NewRecorder()
	h.CreateGallery(rec, authedRequest("POST", "/galleries",
		[]byte(`{"title":"Secret","is_public":false}`), owner.ID, nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// The false must survive the round trip to the database; a column
	// default must never override an explicit private choice.
	var stored models.Gallery
	require.NoError(t, db.Where("owner_id = ?", owner.ID).First(&stored).Error)
	assert.False(t, stored.IsPublic)

	// Omitting the flag still defaults to public.
	rec = httptest.NewRecorder()
	h.CreateGallery(rec, authedRequest("POST", "/galleries",
		[]byte(`{"title":"Open"}`), owner.ID, nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	stored = models.Gallery{}
	require.NoError(t, db.Where("owner_id = ? AND title = ?", owner.ID, "Open").First(&stored).Error)
	assert.True(t, stored.IsPublic)
}

func uintJSON(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

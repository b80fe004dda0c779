package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/artcorner/art-corner-server/cmd/models"
	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
	"gorm.io/gorm"
)

func galleryLink(id uint) string { return fmt.Sprintf("/galleries/%d", id) }

func resourceLink(rt models.ResourceType, id uint) string {
	switch rt {
	case models.ResourceProduct:
		return fmt.Sprintf("/products/%d", id)
	case models.ResourceEvent:
		return fmt.Sprintf("/events/%d", id)
	case models.ResourceGallery:
		return galleryLink(id)
	case models.ResourceArticle:
		return fmt.Sprintf("/articles/%d", id)
	default:
		return fmt.Sprintf("/users/%d", id)
	}
}

func metaJSON(kv map[string]interface{}) []byte {
	b, _ := json.Marshal(kv)
	return b
}

// WriteNotifications maps domain events to notification rows for the
// affected user, and pushes to any registered devices.
func WriteNotifications(tx *gorm.DB, e Event) error {
	switch ev := e.(type) {

	case CollaboratorInvited:
		// An outstanding unseen invite means the user was already asked;
		// submitting the same id again must not re-notify.
		var existing models.Notification
		err := tx.Where("user_id = ? AND type = ? AND link = ? AND seen = ?",
			ev.UserID, models.NotificationCollabInvite, galleryLink(ev.GalleryID), false).
			First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return createNotification(tx, models.Notification{
			UserID:  ev.UserID,
			Type:    models.NotificationCollabInvite,
			Message: fmt.Sprintf("You have been invited to collaborate on the gallery %q", ev.GalleryTitle),
			Link:    galleryLink(ev.GalleryID),
			Meta:    metaJSON(map[string]interface{}{"gallery_id": ev.GalleryID, "owner_id": ev.OwnerID}),
		})

	case CollaboratorWithdrawn:
		// The invite is void; drop it along with any unread trace of it.
		if err := tx.Where("user_id = ? AND type = ? AND link = ?",
			ev.UserID, models.NotificationCollabInvite, galleryLink(ev.GalleryID)).
			Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		return createNotification(tx, models.Notification{
			UserID:  ev.UserID,
			Type:    models.NotificationCollabWithdrawn,
			Message: fmt.Sprintf("Your invitation to the gallery %q was withdrawn", ev.GalleryTitle),
			Link:    galleryLink(ev.GalleryID),
		})

	case CollaboratorRemoved:
		if err := tx.Where("user_id = ? AND link = ?", ev.UserID, galleryLink(ev.GalleryID)).
			Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		return createNotification(tx, models.Notification{
			UserID:  ev.UserID,
			Type:    models.NotificationCollabRemoved,
			Message: fmt.Sprintf("You were removed as a collaborator on the gallery %q", ev.GalleryTitle),
			Link:    galleryLink(ev.GalleryID),
		})

	case CollaboratorAccepted:
		// The invitee acted on the invite, so it counts as seen.
		if err := tx.Model(&models.Notification{}).
			Where("user_id = ? AND type = ? AND link = ?",
				ev.UserID, models.NotificationCollabInvite, galleryLink(ev.GalleryID)).
			Update("seen", true).Error; err != nil {
			return err
		}
		return createNotification(tx, models.Notification{
			UserID:  ev.OwnerID,
			Type:    models.NotificationCollabAccepted,
			Message: fmt.Sprintf("Your collaboration invite for %q was accepted", ev.GalleryTitle),
			Link:    galleryLink(ev.GalleryID),
		})

	case CollaboratorDeclined:
		if err := tx.Where("user_id = ? AND type = ? AND link = ?",
			ev.UserID, models.NotificationCollabInvite, galleryLink(ev.GalleryID)).
			Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		return createNotification(tx, models.Notification{
			UserID:  ev.OwnerID,
			Type:    models.NotificationCollabDeclined,
			Message: fmt.Sprintf("Your collaboration invite for %q was declined", ev.GalleryTitle),
			Link:    galleryLink(ev.GalleryID),
		})

	case FavoriteAdded:
		return createNotification(tx, models.Notification{
			UserID:  ev.OwnerID,
			Type:    models.NotificationFavorite,
			Message: fmt.Sprintf("Someone favorited %q", ev.Title),
			Link:    resourceLink(ev.ResourceType, ev.ResourceID),
			Meta:    metaJSON(map[string]interface{}{"actor_id": ev.ActorID}),
		})

	case OrderPlaced:
		return createNotification(tx, models.Notification{
			UserID:  ev.BuyerID,
			Type:    models.NotificationOrderPlaced,
			Message: fmt.Sprintf("Order %s placed, total %.2f", ev.Reference, ev.Total),
			Link:    fmt.Sprintf("/orders/%d", ev.OrderID),
		})

	case MessageSent:
		return createNotification(tx, models.Notification{
			UserID:  ev.ReceiverID,
			Type:    models.NotificationMessage,
			Message: fmt.Sprintf("New message from %s", ev.SenderName),
			Link:    fmt.Sprintf("/messages/%d", ev.SenderID),
		})
	}

	return nil
}

func createNotification(tx *gorm.DB, n models.Notification) error {
	if err := tx.Create(&n).Error; err != nil {
		return err
	}
	pushToDevices(tx, n)
	return nil
}

var pushClient = expo.NewPushClient(nil)

// pushToDevices delivers the notification to the user's registered Expo
// devices. Best effort: push failures are logged, never surfaced.
func pushToDevices(tx *gorm.DB, n models.Notification) {
	var devices []models.Device
	if err := tx.Where("user_id = ?", n.UserID).Find(&devices).Error; err != nil || len(devices) == 0 {
		return
	}

	var tokens []expo.ExponentPushToken
	for _, device := range devices {
		token, err := expo.NewExponentPushToken(device.Token)
		if err != nil {
			log.Printf("invalid push token for user %d: %v", n.UserID, err)
			continue
		}
		tokens = append(tokens, token)
	}
	if len(tokens) == 0 {
		return
	}

	response, err := pushClient.Publish(&expo.PushMessage{
		To:       tokens,
		Title:    "Art Corner",
		Body:     n.Message,
		Sound:    "default",
		Priority: expo.DefaultPriority,
		Data:     map[string]string{"link": n.Link, "type": n.Type},
	})
	if err != nil {
		log.Printf("push publish failed for user %d: %v", n.UserID, err)
		return
	}
	if err := response.ValidateResponse(); err != nil {
		log.Printf("push validation failed for user %d: %v", n.UserID, err)
	}
}

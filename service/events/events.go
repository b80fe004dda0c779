package events

import (
	"log"

	"github.com/artcorner/art-corner-server/cmd/models"
	"gorm.io/gorm"
)

// Event is a typed domain event. Handlers publish events after a state
// change instead of writing notification or audit rows themselves; the
// registered consumers turn events into those records.
type Event interface {
	Kind() string
}

type CollaboratorInvited struct {
	GalleryID    uint
	GalleryTitle string
	OwnerID      uint
	UserID       uint
}

func (CollaboratorInvited) Kind() string { return "gallery.collaborator_invited" }

type CollaboratorWithdrawn struct {
	GalleryID    uint
	GalleryTitle string
	OwnerID      uint
	UserID       uint
}

func (CollaboratorWithdrawn) Kind() string { return "gallery.collaborator_withdrawn" }

type CollaboratorRemoved struct {
	GalleryID    uint
	GalleryTitle string
	OwnerID      uint
	UserID       uint
}

func (CollaboratorRemoved) Kind() string { return "gallery.collaborator_removed" }

type CollaboratorAccepted struct {
	GalleryID    uint
	GalleryTitle string
	OwnerID      uint
	UserID       uint
}

func (CollaboratorAccepted) Kind() string { return "gallery.collaborator_accepted" }

type CollaboratorDeclined struct {
	GalleryID    uint
	GalleryTitle string
	OwnerID      uint
	UserID       uint
}

func (CollaboratorDeclined) Kind() string { return "gallery.collaborator_declined" }

type FavoriteAdded struct {
	ActorID      uint
	OwnerID      uint
	ResourceType models.ResourceType
	ResourceID   uint
	Title        string
}

func (FavoriteAdded) Kind() string { return "favorite.added" }

type OrderPlaced struct {
	OrderID   uint
	BuyerID   uint
	Reference string
	Total     float64
}

func (OrderPlaced) Kind() string { return "order.placed" }

type OrderStatusChanged struct {
	AdminID uint
	OrderID uint
	Status  string
}

func (OrderStatusChanged) Kind() string { return "order.status_changed" }

type MessageSent struct {
	SenderID   uint
	SenderName string
	ReceiverID uint
	MessageID  uint
}

func (MessageSent) Kind() string { return "message.sent" }

type UserBlocked struct {
	AdminID uint
	UserID  uint
}

func (UserBlocked) Kind() string { return "user.blocked" }

type UserUnblocked struct {
	AdminID uint
	UserID  uint
}

func (UserUnblocked) Kind() string { return "user.unblocked" }

type UserDeleted struct {
	AdminID uint
	UserID  uint
}

func (UserDeleted) Kind() string { return "user.deleted" }

type ReportFiled struct {
	ReportID   uint
	ReporterID uint
	TargetType models.ResourceType
	TargetID   uint
}

func (ReportFiled) Kind() string { return "report.filed" }

type ReportResolved struct {
	AdminID  uint
	ReportID uint
}

func (ReportResolved) Kind() string { return "report.resolved" }

// Consumer reacts to one published event inside the publisher's
// transaction. A consumer error rolls the whole mutation back.
type Consumer func(tx *gorm.DB, e Event) error

type Bus struct {
	consumers []Consumer
}

func NewBus(consumers ...Consumer) *Bus {
	return &Bus{consumers: consumers}
}

// NewDefaultBus wires the standard consumer set.
func NewDefaultBus() *Bus {
	return NewBus(WriteNotifications, WriteAuditLog)
}

func (b *Bus) Publish(tx *gorm.DB, evts ...Event) error {
	for _, e := range evts {
		for _, consume := range b.consumers {
			if err := consume(tx, e); err != nil {
				log.Printf("event %s: consumer error: %v", e.Kind(), err)
				return err
			}
		}
	}
	return nil
}

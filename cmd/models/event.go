package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	TicketFree = "free"
	TicketPaid = "paid"

	ParticipantGoing      = "going"
	ParticipantInterested = "interested"
)

type Event struct {
	gorm.Model
	UserID      uint      `gorm:"column:user_id;not null;index" json:"user_id"`
	Title       string    `gorm:"column:title;size:255;not null" json:"title"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Location    string    `gorm:"column:location;size:500" json:"location"`
	Latitude    float64   `gorm:"column:latitude;default:0" json:"latitude"`
	Longitude   float64   `gorm:"column:longitude;default:0" json:"longitude"`
	StartsAt    time.Time `gorm:"column:starts_at" json:"starts_at"`
	Capacity    int       `gorm:"column:capacity;default:0" json:"capacity"`
	TicketType  string    `gorm:"column:ticket_type;size:20;not null;default:free" json:"ticket_type"`
	Price       float64   `gorm:"column:price;default:0" json:"price"`

	User         *User              `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Participants []EventParticipant `gorm:"foreignKey:EventID" json:"participants,omitempty"`
}

// EventParticipant records an RSVP. A user is either going or interested,
// never both; the unique (event, user) index enforces it. RSVPs
// hard-delete so cancelling and re-joining works.
type EventParticipant struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	EventID   uint      `gorm:"column:event_id;not null;uniqueIndex:idx_event_user" json:"event_id"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:idx_event_user" json:"user_id"`
	Status    string    `gorm:"column:status;size:20;not null" json:"status"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (EventParticipant) TableName() string {
	return "event_participants"
}

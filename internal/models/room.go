package models

import (
	"time"

	"github.com/lib/pq"
)

// RoomType enumerates the supported room categories.
type RoomType string

const (
	RoomTypeLectureHall  RoomType = "LECTURE_HALL"
	RoomTypeLaboratory   RoomType = "LABORATORY"
	RoomTypeAmphitheater RoomType = "AMPHITHEATER"
	RoomTypeTutorialRoom RoomType = "TUTORIAL_ROOM"
	RoomTypeSeminarRoom  RoomType = "SEMINAR_ROOM"
	RoomTypeOther        RoomType = "OTHER"
)

// RoomTypes lists every valid room type.
var RoomTypes = []RoomType{
	RoomTypeLectureHall,
	RoomTypeLaboratory,
	RoomTypeAmphitheater,
	RoomTypeTutorialRoom,
	RoomTypeSeminarRoom,
	RoomTypeOther,
}

// MinRoomCapacity is the smallest bookable room size.
const MinRoomCapacity = 10

// Room represents a physical teaching space.
type Room struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Capacity    int            `db:"capacity" json:"capacity"`
	Type        RoomType       `db:"type" json:"type"`
	Equipment   pq.StringArray `db:"equipment" json:"equipment"`
	IsActive    bool           `db:"is_active" json:"is_active"`
	IsAvailable bool           `db:"is_available" json:"is_available"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// Schedulable reports whether the room may receive new bookings. A room that
// is soft-deleted or temporarily withdrawn is excluded from both conflict-free
// writes and slot suggestions.
func (r Room) Schedulable() bool {
	return r.IsActive && r.IsAvailable
}

// SuitableFor reports whether the room type can host the given session type.
// OTHER rooms accept anything, and any room can host a workshop.
func (r Room) SuitableFor(session SessionType) bool {
	if r.Type == RoomTypeOther || session == SessionTypeWorkshop {
		return true
	}
	switch session {
	case SessionTypeLecture:
		return r.Type == RoomTypeLectureHall || r.Type == RoomTypeAmphitheater
	case SessionTypeLab:
		return r.Type == RoomTypeLaboratory
	case SessionTypeTutorial:
		return r.Type == RoomTypeTutorialRoom || r.Type == RoomTypeSeminarRoom || r.Type == RoomTypeLectureHall
	case SessionTypeSeminar:
		return r.Type == RoomTypeSeminarRoom || r.Type == RoomTypeLectureHall || r.Type == RoomTypeAmphitheater
	default:
		return true
	}
}

// RoomFilter captures filtering criteria for listing rooms.
type RoomFilter struct {
	Type        *RoomType
	MinCapacity int
	Schedulable bool
	Search      string
	Page        int
	PageSize    int
}

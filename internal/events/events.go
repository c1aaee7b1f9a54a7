package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventArtworkCreated  EventType = "artwork.created"
	EventArtworkUpdated  EventType = "artwork.updated"
	EventArtworkDeleted  EventType = "artwork.deleted"
	EventArtworkLiked    EventType = "artwork.liked"
	EventArtworkUnliked  EventType = "artwork.unliked"
	EventFavoriteAdded   EventType = "favorite.added"
	EventFavoriteRemoved EventType = "favorite.removed"
	EventUserRegistered  EventType = "user.registered"
)

// ArtworkEvent describes an activity on an artwork. EventID lets consumers
// drop redeliveries.
type ArtworkEvent struct {
	EventID    string    `json:"event_id"`
	Type       EventType `json:"type"`
	ArtworkID  string    `json:"artwork_id,omitempty"`
	ActorEmail string    `json:"actor_email"`
	Likes      *int64    `json:"likes,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewArtworkEvent(eventType EventType, artworkID, actorEmail string) ArtworkEvent {
	return ArtworkEvent{
		EventID:    uuid.New().String(),
		Type:       eventType,
		ArtworkID:  artworkID,
		ActorEmail: actorEmail,
		Timestamp:  time.Now().UTC(),
	}
}

// NewLikeEvent records the like count after a like transition.
func NewLikeEvent(liked bool, artworkID, actorEmail string, likes int64) ArtworkEvent {
	eventType := EventArtworkUnliked
	if liked {
		eventType = EventArtworkLiked
	}
	event := NewArtworkEvent(eventType, artworkID, actorEmail)
	event.Likes = &likes
	return event
}

// Key partitions events so that all activity on one artwork stays ordered.
func (e ArtworkEvent) Key() string {
	if e.ArtworkID != "" {
		return e.ArtworkID
	}
	return e.ActorEmail
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Favorite represents a user's saved artwork. ArtworkID is a back-reference
// resolved at read time and may outlive the artwork.
type Favorite struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserEmail string             `bson:"userEmail" json:"userEmail"`
	ArtworkID string             `bson:"artworkId" json:"artworkId"`
	AddedAt   time.Time          `bson:"addedAt" json:"addedAt"`
}

type FavoriteRequest struct {
	UserEmail string `json:"userEmail"`
	ArtworkID string `json:"artworkId"`
}

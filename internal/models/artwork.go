package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "Public"
	VisibilityPrivate Visibility = "Private"
)

// Valid reports whether v is one of the known visibility values.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

type Artwork struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ImageURL    string             `bson:"imageUrl" json:"imageUrl"`
	Title       string             `bson:"title" json:"title"`
	Category    string             `bson:"category" json:"category"`
	Medium      string             `bson:"medium,omitempty" json:"medium,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Dimensions  string             `bson:"dimensions,omitempty" json:"dimensions,omitempty"`
	Price       string             `bson:"price,omitempty" json:"price,omitempty"`
	Visibility  Visibility         `bson:"visibility" json:"visibility"`
	ArtistEmail string             `bson:"artistEmail" json:"artistEmail"`
	ArtistName  string             `bson:"artistName" json:"artistName"`
	ArtistPhoto string             `bson:"artistPhoto,omitempty" json:"artistPhoto,omitempty"`
	Likes       int64              `bson:"likes" json:"likes"`
	LikedBy     []string           `bson:"likedBy" json:"likedBy"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   *time.Time         `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// LikedByUser reports whether email is in the liked-by set.
func (a *Artwork) LikedByUser(email string) bool {
	for _, e := range a.LikedBy {
		if e == email {
			return true
		}
	}
	return false
}

// CreateArtworkRequest is the submission payload for a new artwork.
type CreateArtworkRequest struct {
	ImageURL    string     `json:"imageUrl"`
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	Medium      string     `json:"medium"`
	Description string     `json:"description"`
	Dimensions  string     `json:"dimensions"`
	Price       string     `json:"price"`
	Visibility  Visibility `json:"visibility"`
	ArtistEmail string     `json:"artistEmail"`
	ArtistName  string     `json:"artistName"`
	ArtistPhoto string     `json:"artistPhoto"`
}

// UpdateArtworkRequest is a partial patch; nil fields are left untouched.
type UpdateArtworkRequest struct {
	ImageURL    *string     `json:"imageUrl"`
	Title       *string     `json:"title"`
	Category    *string     `json:"category"`
	Medium      *string     `json:"medium"`
	Description *string     `json:"description"`
	Dimensions  *string     `json:"dimensions"`
	Price       *string     `json:"price"`
	Visibility  *Visibility `json:"visibility"`
	ArtistName  *string     `json:"artistName"`
	ArtistPhoto *string     `json:"artistPhoto"`
}

// Fields returns the set fields keyed by their stored name.
func (r *UpdateArtworkRequest) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	set := func(key string, value *string) {
		if value != nil {
			fields[key] = *value
		}
	}
	set("imageUrl", r.ImageURL)
	set("title", r.Title)
	set("category", r.Category)
	set("medium", r.Medium)
	set("description", r.Description)
	set("dimensions", r.Dimensions)
	set("price", r.Price)
	set("artistName", r.ArtistName)
	set("artistPhoto", r.ArtistPhoto)
	if r.Visibility != nil {
		fields["visibility"] = *r.Visibility
	}
	return fields
}

type LikeAction string

const (
	ActionLike   LikeAction = "like"
	ActionUnlike LikeAction = "unlike"
)

// LikeRequest toggles a like for UserEmail.
type LikeRequest struct {
	UserEmail string     `json:"userEmail"`
	Action    LikeAction `json:"action"`
}

// LikeResult is the state of an artwork after a like toggle.
type LikeResult struct {
	ArtworkID string `json:"artworkId"`
	Likes     int64  `json:"likes"`
	Liked     bool   `json:"liked"`
	Changed   bool   `json:"changed"`
}

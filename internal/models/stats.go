package models

type CategoryCount struct {
	Category string `bson:"category" json:"category"`
	Count    int64  `bson:"count" json:"count"`
}

type ArtistSummary struct {
	ArtistEmail   string `bson:"artistEmail" json:"artistEmail"`
	ArtistName    string `bson:"artistName" json:"artistName"`
	ArtistPhoto   string `bson:"artistPhoto,omitempty" json:"artistPhoto,omitempty"`
	TotalLikes    int64  `bson:"totalLikes" json:"totalLikes"`
	TotalArtworks int64  `bson:"totalArtworks" json:"totalArtworks"`
}

// ArtworkPage is one page of a paginated listing.
type ArtworkPage struct {
	Artworks   []*Artwork `json:"artworks"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	TotalPages int64      `json:"totalPages"`
}

// Package access enforces resource ownership for mutating operations.
package access

import (
	"github.com/artisans-echo/artwork-service/internal/apperr"
	"github.com/artisans-echo/artwork-service/internal/models"
)

// Guard compares an already verified caller identity against the owner of a
// resource. An empty identity means the request is unauthenticated, which is
// only possible when authentication is optional, and is let through.
type Guard struct{}

func NewGuard() *Guard {
	return &Guard{}
}

// CheckOwner permits the operation only if identity owns the artwork.
func (g *Guard) CheckOwner(identity string, artwork *models.Artwork) error {
	if identity == "" {
		return nil
	}
	if artwork == nil || artwork.ArtistEmail != identity {
		return apperr.Forbidden("only the artist can modify this artwork")
	}
	return nil
}

// CheckSelf permits acting on behalf of email only if it is the caller.
func (g *Guard) CheckSelf(identity, email string) error {
	if identity == "" {
		return nil
	}
	if identity != email {
		return apperr.Forbidden("cannot act on behalf of another user")
	}
	return nil
}

package access

import (
	"testing"

	"github.com/artisans-echo/artwork-service/internal/apperr"
	"github.com/artisans-echo/artwork-service/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCheckOwner(t *testing.T) {
	g := NewGuard()
	artwork := &models.Artwork{ArtistEmail: "ana@example.com"}

	assert.NoError(t, g.CheckOwner("ana@example.com", artwork))
	assert.NoError(t, g.CheckOwner("", artwork))

	err := g.CheckOwner("bob@example.com", artwork)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	err = g.CheckOwner("bob@example.com", nil)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestCheckSelf(t *testing.T) {
	g := NewGuard()

	assert.NoError(t, g.CheckSelf("ana@example.com", "ana@example.com"))
	assert.NoError(t, g.CheckSelf("", "ana@example.com"))
	assert.True(t, apperr.Is(g.CheckSelf("ana@example.com", "bob@example.com"), apperr.KindForbidden))
}

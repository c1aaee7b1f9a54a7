package query

import (
	"math"
	"strings"
	"testing"

	"github.com/artisans-echo/artwork-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func newTestBuilder() *Builder {
	return NewBuilder(12, 100, 20)
}

func TestPredicate_PublicListing(t *testing.T) {
	b := newTestBuilder()

	filter := b.Predicate(ArtworkFilter{PublicOnly: true})

	assert.Equal(t, bson.M{"visibility": models.VisibilityPublic}, filter)
}

func TestPredicate_OwnerListingIgnoresVisibility(t *testing.T) {
	b := newTestBuilder()

	filter := b.Predicate(ArtworkFilter{ArtistEmail: "ana@example.com"})

	assert.Equal(t, bson.M{"artistEmail": "ana@example.com"}, filter)
}

func TestPredicate_Category(t *testing.T) {
	b := newTestBuilder()

	tests := []struct {
		category string
		want     interface{}
	}{
		{category: "Painting", want: "Painting"},
		{category: "all", want: nil},
		{category: "ALL", want: nil},
		{category: "", want: nil},
		{category: "  ", want: nil},
	}

	for _, tt := range tests {
		filter := b.Predicate(ArtworkFilter{Category: tt.category})
		got, ok := filter["category"]
		if tt.want == nil {
			assert.False(t, ok, "category %q should not filter", tt.category)
			continue
		}
		assert.Equal(t, tt.want, got)
	}
}

func TestPredicate_SearchSpansFields(t *testing.T) {
	b := newTestBuilder()

	filter := b.Predicate(ArtworkFilter{Search: "  monet ", PublicOnly: true})

	or, ok := filter["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, len(SearchFields))
	for i, field := range SearchFields {
		clause := or[i].(bson.M)
		assert.Equal(t, bson.M{"$regex": "monet", "$options": "i"}, clause[field])
	}
	assert.Equal(t, models.VisibilityPublic, filter["visibility"])
}

func TestSearchPattern_EscapesAndCaps(t *testing.T) {
	b := newTestBuilder()

	assert.Equal(t, `\(a\+\)\+\$`, b.SearchPattern("(a+)+$"))
	assert.Equal(t, "", b.SearchPattern("   "))

	long := strings.Repeat("x", 50)
	assert.Len(t, b.SearchPattern(long), 20)
}

func TestPaginate(t *testing.T) {
	b := newTestBuilder()

	assert.Equal(t, Pagination{Page: 1, Limit: 12}, b.Paginate(0, 0))
	assert.Equal(t, Pagination{Page: 3, Limit: 12}, b.Paginate(3, 0))
	assert.Equal(t, Pagination{Page: 2, Limit: 100}, b.Paginate(2, 500))
	assert.Equal(t, Pagination{Page: 1, Limit: 5}, b.Paginate(-4, 5))
}

func TestPaginate_HugePageDoesNotOverflowSkip(t *testing.T) {
	b := newTestBuilder()

	tests := []struct {
		page  int
		limit int
	}{
		{page: math.MaxInt, limit: 100},
		{page: math.MaxInt, limit: 0},
		{page: math.MaxInt / 100, limit: 100},
		{page: math.MaxInt, limit: 1},
	}

	for _, tt := range tests {
		p := b.Paginate(tt.page, tt.limit)
		assert.GreaterOrEqual(t, p.Skip(), int64(0), "page=%d limit=%d", tt.page, tt.limit)
		assert.GreaterOrEqual(t, p.Page, 1)
	}
}

func TestPaginationArithmetic(t *testing.T) {
	p := Pagination{Page: 3, Limit: 12}

	assert.Equal(t, int64(24), p.Skip())
	assert.Equal(t, int64(3), p.TotalPages(25))
	assert.Equal(t, int64(2), p.TotalPages(24))
	assert.Equal(t, int64(0), p.TotalPages(0))
}

func TestFindOptions(t *testing.T) {
	p := Pagination{Page: 2, Limit: 12}
	opts := FindOptions(&p)

	require.NotNil(t, opts.Skip)
	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(12), *opts.Skip)
	assert.Equal(t, int64(12), *opts.Limit)
	assert.Equal(t, Sort(), opts.Sort)

	unpaged := FindOptions(nil)
	assert.Nil(t, unpaged.Skip)
	assert.Nil(t, unpaged.Limit)

	latest := LimitOptions(6)
	assert.Equal(t, int64(6), *latest.Limit)
}

// Package query turns listing filters into MongoDB predicates and find
// options for the artworks collection.
package query

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/artisans-echo/artwork-service/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CategoryAll disables the category filter.
const CategoryAll = "all"

// Fields matched by a free-text search.
var SearchFields = []string{"title", "artistName", "category"}

// ArtworkFilter is the set of optional listing parameters.
type ArtworkFilter struct {
	Search      string
	Category    string
	ArtistEmail string
	PublicOnly  bool
}

// Pagination is a resolved 1-based page request.
type Pagination struct {
	Page  int
	Limit int
}

// Skip is the number of documents before the first one of the page.
func (p Pagination) Skip() int64 {
	return int64(p.Page-1) * int64(p.Limit)
}

// TotalPages is ceil(total / limit).
func (p Pagination) TotalPages(total int64) int64 {
	if p.Limit <= 0 || total <= 0 {
		return 0
	}
	return (total + int64(p.Limit) - 1) / int64(p.Limit)
}

// Builder holds the limits shared by every query.
type Builder struct {
	defaultLimit    int
	maxLimit        int
	maxSearchLength int
}

func NewBuilder(defaultLimit, maxLimit, maxSearchLength int) *Builder {
	return &Builder{
		defaultLimit:    defaultLimit,
		maxLimit:        maxLimit,
		maxSearchLength: maxSearchLength,
	}
}

// Paginate normalizes page and limit: page < 1 becomes 1, limit < 1 takes
// the default and anything above the maximum is capped. Page is capped so
// that Skip never overflows int64.
func (b *Builder) Paginate(page, limit int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = b.defaultLimit
	}
	if limit > b.maxLimit {
		limit = b.maxLimit
	}
	if limit > 0 {
		if maxSkipPages := math.MaxInt64 / int64(limit); int64(page-1) > maxSkipPages {
			page = int(maxSkipPages) + 1
		}
	}
	return Pagination{Page: page, Limit: limit}
}

// Predicate builds the find filter for f.
func (b *Builder) Predicate(f ArtworkFilter) bson.M {
	filter := bson.M{}

	if f.PublicOnly {
		filter["visibility"] = models.VisibilityPublic
	}

	if f.ArtistEmail != "" {
		filter["artistEmail"] = f.ArtistEmail
	}

	if category := strings.TrimSpace(f.Category); category != "" && !strings.EqualFold(category, CategoryAll) {
		filter["category"] = category
	}

	if pattern := b.SearchPattern(f.Search); pattern != "" {
		or := make(bson.A, 0, len(SearchFields))
		for _, field := range SearchFields {
			or = append(or, bson.M{field: bson.M{"$regex": pattern, "$options": "i"}})
		}
		filter["$or"] = or
	}

	return filter
}

// SearchPattern trims and truncates term and escapes every regex
// metacharacter so the store performs a literal substring match.
func (b *Builder) SearchPattern(term string) string {
	term = strings.TrimSpace(term)
	if term == "" {
		return ""
	}
	if b.maxSearchLength > 0 && utf8.RuneCountInString(term) > b.maxSearchLength {
		term = string([]rune(term)[:b.maxSearchLength])
	}
	return regexp.QuoteMeta(term)
}

// Sort is the default listing order: newest first, then by identifier.
func Sort() bson.D {
	return bson.D{
		{Key: "createdAt", Value: -1},
		{Key: "_id", Value: -1},
	}
}

// FindOptions returns sorted options, with skip/limit when p is non-nil.
func FindOptions(p *Pagination) *options.FindOptions {
	opts := options.Find().SetSort(Sort())
	if p != nil {
		opts.SetSkip(p.Skip()).SetLimit(int64(p.Limit))
	}
	return opts
}

// LimitOptions returns sorted options capped at n documents.
func LimitOptions(n int) *options.FindOptions {
	return options.Find().SetSort(Sort()).SetLimit(int64(n))
}

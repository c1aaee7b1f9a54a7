package service

import (
	"strings"

	"github.com/artisans-echo/artwork-service/internal/access"
	"github.com/artisans-echo/artwork-service/internal/models"
	"github.com/artisans-echo/artwork-service/internal/query"
	"github.com/artisans-echo/artwork-service/internal/service/servicetest"
	"github.com/artisans-echo/artwork-service/internal/validation"
)

type fixture struct {
	artworks  *servicetest.Artworks
	favorites *servicetest.Favorites
	users     *servicetest.Users
	cache     *servicetest.Cache
	publisher *servicetest.Publisher

	artworkSvc  *ArtworkService
	likeSvc     *LikeService
	favoriteSvc *FavoriteService
	userSvc     *UserService
}

func newFixture() *fixture {
	f := &fixture{
		artworks:  servicetest.NewArtworks(),
		favorites: &servicetest.Favorites{},
		users:     &servicetest.Users{},
		cache:     servicetest.NewCache(),
		publisher: &servicetest.Publisher{},
	}
	logger := servicetest.Logger()
	guard := access.NewGuard()
	builder := query.NewBuilder(12, 100, 100)
	images := validation.NewImageURLValidator([]string{"i.ibb.co"})

	f.artworkSvc = NewArtworkService(f.artworks, builder, guard, images, f.cache, f.publisher, 6, 4, logger)
	f.likeSvc = NewLikeService(f.artworks, guard, f.cache, f.publisher, logger)
	f.favoriteSvc = NewFavoriteService(f.favorites, f.artworks, guard, f.publisher, logger)
	f.userSvc = NewUserService(f.users, guard, f.publisher, logger)
	return f
}

func artworkRequest(title, artistEmail, artistName, category string) *models.CreateArtworkRequest {
	return &models.CreateArtworkRequest{
		ImageURL:    "https://i.ibb.co/x/" + strings.ReplaceAll(strings.ToLower(title), " ", "-"),
		Title:       title,
		Category:    category,
		ArtistEmail: artistEmail,
		ArtistName:  artistName,
	}
}

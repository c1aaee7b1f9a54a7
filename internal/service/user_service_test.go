package service

import (
	"context"
	"testing"

	"github.com/artisans-echo/artwork-service/internal/apperr"
	"github.com/artisans-echo/artwork-service/internal/events"
	"github.com/artisans-echo/artwork-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrFetch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	user, created, err := f.userSvc.CreateOrFetch(ctx, ana, &models.CreateUserRequest{Email: ana, Name: "Ana"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Ana", user.Name)

	again, created, err := f.userSvc.CreateOrFetch(ctx, ana, &models.CreateUserRequest{Email: ana, Name: "Renamed"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, "Ana", again.Name)

	assert.Equal(t, []events.EventType{events.EventUserRegistered}, f.publisher.Types())
}

func TestCreateOrFetch_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, _, err := f.userSvc.CreateOrFetch(ctx, "", &models.CreateUserRequest{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, _, err = f.userSvc.CreateOrFetch(ctx, "", &models.CreateUserRequest{Email: "ana"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, _, err = f.userSvc.CreateOrFetch(ctx, ben, &models.CreateUserRequest{Email: ana})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestGetUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.userSvc.Get(ctx, ana)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, _, err = f.userSvc.CreateOrFetch(ctx, ana, &models.CreateUserRequest{})
	require.NoError(t, err)

	user, err := f.userSvc.Get(ctx, ana)
	require.NoError(t, err)
	assert.Equal(t, ana, user.Email)
}

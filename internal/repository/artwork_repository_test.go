package repository

import (
	"errors"
	"testing"

	"github.com/artisans-echo/artwork-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// The tests in this file check the documents sent to MongoDB. Their effect
// on a live store is covered by the integration-tagged tests in
// store_integration_test.go.

func TestLikeMutation_GatedOnMembership(t *testing.T) {
	id := primitive.NewObjectID()

	filter, update := LikeMutation(id, "ana@example.com")

	assert.Equal(t, id, filter["_id"])
	assert.Equal(t, bson.M{"$ne": "ana@example.com"}, filter["likedBy"])
	assert.Equal(t, bson.M{"likes": 1}, update["$inc"])
	assert.Equal(t, bson.M{"likedBy": "ana@example.com"}, update["$addToSet"])
}

func TestUnlikeMutation_FloorsAtZero(t *testing.T) {
	id := primitive.NewObjectID()

	filter, update := UnlikeMutation(id, "ana@example.com")

	assert.Equal(t, "ana@example.com", filter["likedBy"])
	require.Len(t, update, 1)

	stage := update[0]
	require.Equal(t, "$set", stage[0].Key)
	set := stage[0].Value.(bson.M)

	likes := set["likes"].(bson.M)
	bounds := likes["$max"].(bson.A)
	assert.Equal(t, 0, bounds[0])
	assert.Equal(t, bson.M{"$subtract": bson.A{"$likes", 1}}, bounds[1])

	likedBy := set["likedBy"].(bson.M)
	diff := likedBy["$setDifference"].(bson.A)
	assert.Equal(t, bson.A{"ana@example.com"}, diff[1])
}

func TestCategoryCountsPipeline(t *testing.T) {
	pipeline := CategoryCountsPipeline()
	require.Len(t, pipeline, 4)

	assert.Equal(t, "$match", pipeline[0][0].Key)
	assert.Equal(t, bson.M{"visibility": models.VisibilityPublic}, pipeline[0][0].Value)
	assert.Equal(t, "$sort", pipeline[2][0].Key)
	assert.Equal(t, bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}, pipeline[2][0].Value)
}

func TestTopArtistsPipeline(t *testing.T) {
	pipeline := TopArtistsPipeline(4)
	require.Len(t, pipeline, 5)

	group := pipeline[1][0].Value.(bson.M)
	assert.Equal(t, bson.M{"$last": "$artistName"}, group["artistName"])
	assert.Equal(t, bson.M{"$sum": "$likes"}, group["totalLikes"])

	sort := pipeline[2][0].Value.(bson.D)
	assert.Equal(t, "totalLikes", sort[0].Key)
	assert.Equal(t, "totalArtworks", sort[1].Key)

	assert.Equal(t, "$limit", pipeline[3][0].Key)
	assert.Equal(t, int64(4), pipeline[3][0].Value)
}

func TestIsUnavailable(t *testing.T) {
	assert.True(t, IsUnavailable(mongo.ErrClientDisconnected))
	assert.True(t, IsUnavailable(wrapStoreError(mongo.ErrClientDisconnected)))
	assert.False(t, IsUnavailable(errors.New("E11000 duplicate key")))
	assert.Nil(t, wrapStoreError(nil))
}

func TestNormalize(t *testing.T) {
	a := normalize(&models.Artwork{})
	assert.NotNil(t, a.LikedBy)
	assert.Empty(t, a.LikedBy)
}

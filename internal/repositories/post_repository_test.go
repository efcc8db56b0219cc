package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anonto42/nearby/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func postDoc(id primitive.ObjectID, userID int32, content string, created time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "user_id", Value: userID},
		{Key: "content", Value: content},
		{Key: "category", Value: "HELP"},
		{Key: "media", Value: bson.A{}},
		{Key: "location", Value: "12.9716,77.5946"},
		{Key: "coordinate", Value: bson.D{{Key: "latitude", Value: 12.9716}, {Key: "longitude", Value: 77.5946}}},
		{Key: "created_at", Value: created},
		{Key: "updated_at", Value: created},
	}
}

func TestMongoPostRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("GetPostsByIDs", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		id1, id2 := primitive.NewObjectID(), primitive.NewObjectID()
		now := time.Now().UTC().Truncate(time.Millisecond)
		ns := mt.DB.Name() + ".posts"

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			postDoc(id2, 2, "newer", now),
			postDoc(id1, 1, "older", now.Add(-time.Minute)),
		))

		posts, err := repo.GetPostsByIDs(context.Background(), []string{id1.Hex(), "not-an-id", id2.Hex()})
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, id2, posts[0].ID)
		assert.Equal(t, uint(2), posts[0].UserID)
		assert.Equal(t, models.CategoryHelp, posts[0].Category)
		assert.InDelta(t, 77.5946, posts[0].Coordinate.Longitude, 1e-9)
	})

	mt.Run("GetPostsByIDsEmpty", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		posts, err := repo.GetPostsByIDs(context.Background(), []string{"bogus"})
		require.NoError(t, err)
		assert.Empty(t, posts)
	})

	mt.Run("GetPostByIDNotFound", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".posts", mtest.FirstBatch))

		_, err := repo.GetPostByID(context.Background(), primitive.NewObjectID().Hex())
		assert.True(t, errors.Is(err, ErrNotFound))

		_, err = repo.GetPostByID(context.Background(), "xyz")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	mt.Run("CreatePost", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		post := &models.Post{UserID: 1, Content: "hello", Category: models.CategoryLocalUpdate}
		require.NoError(t, repo.CreatePost(context.Background(), post))
		assert.False(t, post.ID.IsZero())
		assert.False(t, post.CreatedAt.IsZero())
	})
}

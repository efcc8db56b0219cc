package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/anonto42/nearby/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateComment(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresCommentRepository(db)

	mock.ExpectQuery(`INSERT INTO "comments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))

	c := &models.Comment{PostID: "p1", UserID: 4, Content: "On my way"}
	require.NoError(t, repo.CreateComment(context.Background(), c))
	assert.Equal(t, uint(12), c.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCommentsByPostIDs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresCommentRepository(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "comments" WHERE post_id IN \(\$1,\$2\) ORDER BY created_at ASC`).
		WithArgs("p1", "p2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "user_id", "content", "created_at", "updated_at"}).
			AddRow(1, "p1", 4, "first", now, now).
			AddRow(2, "p2", 5, "second", now, now))

	comments, err := repo.GetCommentsByPostIDs(context.Background(), []string{"p1", "p2"})
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "second", comments[1].Content)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCommentsByPostIDsEmpty(t *testing.T) {
	db, _ := newMockDB(t)
	comments, err := NewPostgresCommentRepository(db).GetCommentsByPostIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

package repository_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saveplate/marketplace/internal/repository"
)

var msgCols = []string{"id", "conversation_id", "sender_id", "body", "read_at", "created_at"}

func TestMessageRepoListPage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewMessageRepo(db)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("WindowComesBackAscending", func(t *testing.T) {
		// The query reads newest-first; the repo must reverse it.
		rows := sqlmock.NewRows(msgCols)
		for id := 30; id >= 11; id-- {
			rows.AddRow(uint64(id), uint64(1), uint64(2), "hello", nil, base.Add(time.Duration(id)*time.Minute))
		}
		mock.ExpectQuery(regexp.QuoteMeta("WHERE conversation_id = ? ORDER BY id DESC LIMIT ? OFFSET ?")).
			WithArgs(uint64(1), 20, 0).
			WillReturnRows(rows)

		page, err := repo.ListPage(ctx, 1, 0, 20)
		require.NoError(t, err)
		require.Len(t, page, 20)
		assert.Equal(t, uint64(11), page[0].ID)
		assert.Equal(t, uint64(30), page[19].ID)
		for i := 1; i < len(page); i++ {
			assert.True(t, page[i].CreatedAt.After(page[i-1].CreatedAt))
		}
	})

	t.Run("ShortPageMeansHistoryStart", func(t *testing.T) {
		rows := sqlmock.NewRows(msgCols).
			AddRow(uint64(2), uint64(1), uint64(2), "second", nil, base.Add(2*time.Minute)).
			AddRow(uint64(1), uint64(1), uint64(3), "first", nil, base.Add(time.Minute))
		mock.ExpectQuery(regexp.QuoteMeta("WHERE conversation_id = ? ORDER BY id DESC LIMIT ? OFFSET ?")).
			WithArgs(uint64(1), 20, 40).
			WillReturnRows(rows)

		page, err := repo.ListPage(ctx, 1, 40, 20)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, uint64(1), page[0].ID)
	})

	t.Run("BoundsClamped", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("WHERE conversation_id = ? ORDER BY id DESC LIMIT ? OFFSET ?")).
			WithArgs(uint64(1), 20, 0).
			WillReturnRows(sqlmock.NewRows(msgCols))

		page, err := repo.ListPage(ctx, 1, -5, 500)
		require.NoError(t, err)
		assert.Empty(t, page)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepoMarkRead(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewMessageRepo(db)

	// Only the counterpart's unread messages get stamped.
	mock.ExpectExec(regexp.QuoteMeta("SET read_at = NOW()")).
		WithArgs(uint64(1), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.MarkRead(context.Background(), 1, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepoUnreadCountForUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewMessageRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN conversations c ON c.id = m.conversation_id")).
		WithArgs(uint64(2), uint64(2), uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(4)))

	n, err := repo.UnreadCountForUser(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repositories

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toonarmycaptain/website/internal/models"
	"github.com/toonarmycaptain/website/pkg/database"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	db, err := database.Init(context.Background(), filepath.Join(t.TempDir(), "contact.db"), database.SchemaParams{MessageMaxLength: 100}, log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPersonRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPersonRepository(setupDB(t))

	person := models.NewPerson("Sir Lancelot", "contact@host.tld")
	require.NoError(t, repo.Create(ctx, person))
	assert.NotZero(t, person.ID)

	t.Run("GetByEmail", func(t *testing.T) {
		found, err := repo.GetByEmail(ctx, "contact@host.tld")
		require.NoError(t, err)
		assert.Equal(t, person.ID, found.ID)
		assert.Equal(t, "Sir Lancelot", found.Name)
		assert.Nil(t, found.AlternateNames)
		assert.False(t, found.CreatedAt.IsZero())
	})

	t.Run("GetByEmail is exact match", func(t *testing.T) {
		_, err := repo.GetByEmail(ctx, "CONTACT@host.tld")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("UpdateAlternateNames", func(t *testing.T) {
		person.AddAlternateName("Lancelot the Brave")
		require.NoError(t, repo.UpdateAlternateNames(ctx, person))

		found, err := repo.GetByID(ctx, person.ID)
		require.NoError(t, err)
		require.NotNil(t, found.AlternateNames)
		assert.Equal(t, "Lancelot the Brave", *found.AlternateNames)
	})

	t.Run("UpdateAlternateNames unknown person", func(t *testing.T) {
		ghost := &models.Person{ID: 999}
		assert.ErrorIs(t, repo.UpdateAlternateNames(ctx, ghost), sql.ErrNoRows)
	})

	t.Run("Count", func(t *testing.T) {
		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestMessageRepository(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	people := NewPersonRepository(db)
	messages := NewMessageRepository(db)

	person := models.NewPerson("Sir Galahad", "galahad@camelot.tld")
	require.NoError(t, people.Create(ctx, person))

	first := models.NewMessage(person.ID, "first")
	second := models.NewMessage(person.ID, "second")
	require.NoError(t, messages.Create(ctx, first))
	require.NoError(t, messages.Create(ctx, second))

	t.Run("GetByID", func(t *testing.T) {
		found, err := messages.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, person.ID, found.PersonID)
		assert.Equal(t, "first", found.Contents)
		assert.False(t, found.EmailSent)
		assert.False(t, found.SMSSent)
	})

	t.Run("MarkEmailSent", func(t *testing.T) {
		require.NoError(t, messages.MarkEmailSent(ctx, first.ID))
		require.NoError(t, messages.MarkEmailSent(ctx, first.ID))

		found, err := messages.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.True(t, found.EmailSent)

		assert.ErrorIs(t, messages.MarkEmailSent(ctx, 12345), sql.ErrNoRows)
	})

	t.Run("ListUnnotified", func(t *testing.T) {
		pending, err := messages.ListUnnotified(ctx, 0, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, second.ID, pending[0].Message.ID)
		assert.Equal(t, "galahad@camelot.tld", pending[0].Person.Email)

		recent, err := messages.ListUnnotified(ctx, time.Hour, 10)
		require.NoError(t, err)
		assert.Empty(t, recent)
	})

	t.Run("ListUnnotified includes old messages", func(t *testing.T) {
		_, err := db.ExecContext(ctx, `UPDATE message SET created_at = datetime('now', '-2 hours') WHERE id = ?`, second.ID)
		require.NoError(t, err)

		pending, err := messages.ListUnnotified(ctx, time.Hour, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, second.ID, pending[0].Message.ID)
	})

	t.Run("CountUnnotified", func(t *testing.T) {
		count, err := messages.CountUnnotified(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("ListSubmissions", func(t *testing.T) {
		all, err := messages.ListSubmissions(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, first.ID, all[0].Message.ID)
		assert.Equal(t, "Sir Galahad", all[1].Person.Name)
	})

	t.Run("CountByPersonID", func(t *testing.T) {
		count, err := messages.CountByPersonID(ctx, person.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

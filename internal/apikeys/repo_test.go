package apikeys

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mnhs-dev/registrar-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:apikeys_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ApiKey{}))
	return db
}

func TestRepositoryCreateAndFindByKey(t *testing.T) {
	repo := NewRepository(newTestDB(t))

	created, err := repo.Create(context.Background(), &models.ApiKey{
		Name:     "registrar-frontend",
		Key:      "sk-" + uuid.NewString(),
		IsActive: true,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	found, err := repo.FindByKey(context.Background(), created.Key)
	require.NoError(t, err)
	require.Equal(t, "registrar-frontend", found.Name)

	_, err = repo.FindByKey(context.Background(), "sk-missing")
	require.Error(t, err)
}

func TestRepositoryDuplicateKeyRejected(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	raw := "sk-" + uuid.NewString()

	_, err := repo.Create(context.Background(), &models.ApiKey{Name: "a", Key: raw, IsActive: true})
	require.NoError(t, err)

	_, err = repo.Create(context.Background(), &models.ApiKey{Name: "b", Key: raw, IsActive: true})
	require.Error(t, err, "expected unique constraint violation")
}

func TestRepositoryMarkUsedAndDeactivate(t *testing.T) {
	repo := NewRepository(newTestDB(t))

	created, err := repo.Create(context.Background(), &models.ApiKey{
		Name:     "ci",
		Key:      "sk-" + uuid.NewString(),
		IsActive: true,
	})
	require.NoError(t, err)

	usedAt := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkUsed(context.Background(), created.ID, usedAt))
	require.NoError(t, repo.Deactivate(context.Background(), created.ID))

	found, err := repo.FindByKey(context.Background(), created.Key)
	require.NoError(t, err)
	require.NotNil(t, found.LastUsedAt)
	require.True(t, found.LastUsedAt.Equal(usedAt))
	require.False(t, found.IsActive)
}

func TestRepositoryListNewestFirst(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	for _, name := range []string{"one", "two"} {
		_, err := repo.Create(context.Background(), &models.ApiKey{Name: name, Key: "sk-" + uuid.NewString(), IsActive: true})
		require.NoError(t, err)
	}

	keys, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, keys, 2)
}

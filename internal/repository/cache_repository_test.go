package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/suivi-academique-api/pkg/errors"
)

func TestCacheRepositoryWithoutClientIsAMiss(t *testing.T) {
	repo := NewCacheRepository(nil)
	ctx := context.Background()

	assert.NoError(t, repo.Set(ctx, "bookings:stats", map[string]int{"total": 3}, time.Minute))

	var dest map[string]int
	err := repo.Get(ctx, "bookings:stats", &dest)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	assert.Nil(t, dest)

	assert.NoError(t, repo.DeleteByPattern(ctx, "bookings:*"))
	assert.NoError(t, repo.Ping(ctx))
	assert.NoError(t, repo.Close())
}

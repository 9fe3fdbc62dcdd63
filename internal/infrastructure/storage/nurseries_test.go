package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PlantScout/internal/domain"
)

func TestRepository_Nurseries(t *testing.T) {
	t.Parallel()

	repo := openTestRepository(t)
	ctx := context.Background()

	none, err := repo.FindNurseries(ctx, "48104")
	require.NoError(t, err)
	assert.Empty(t, none)

	far, err := repo.SaveNursery(ctx, domain.Nursery{Name: "Prairie Moon", Address: "1 Main", City: "Winona", State: "MN", Zip: "55987"})
	require.NoError(t, err)
	near, err := repo.SaveNursery(ctx, domain.Nursery{
		Name: "Native Roots", URL: domain.StringPtr("https://nativeroots.test"),
		Address: "2 Elm", City: "Ann Arbor", State: "MI", Zip: "48103",
	})
	require.NoError(t, err)

	again, err := repo.SaveNursery(ctx, domain.Nursery{Name: "Native Roots", Address: "3 Oak", City: "Ann Arbor", State: "MI", Zip: "48103"})
	require.NoError(t, err)
	assert.Equal(t, near, again)

	require.NoError(t, repo.LinkNursery(ctx, "48104", far, 90))
	require.NoError(t, repo.LinkNursery(ctx, "48104", near, 12))
	require.NoError(t, repo.LinkNursery(ctx, "48104", near, 3))

	nurseries, err := repo.FindNurseries(ctx, "48104")
	require.NoError(t, err)
	require.Len(t, nurseries, 2)
	assert.Equal(t, "Native Roots", nurseries[0].Name)
	assert.Equal(t, 3, nurseries[0].Miles)
	assert.Equal(t, "3 Oak", nurseries[0].Address)
	assert.Nil(t, nurseries[0].URL)
	assert.Equal(t, "Prairie Moon", nurseries[1].Name)
	assert.Equal(t, "55987", nurseries[1].Zip)
}

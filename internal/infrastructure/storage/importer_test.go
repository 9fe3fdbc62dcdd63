package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_ImportRegions(t *testing.T) {
	t.Parallel()

	repo := openTestRepository(t)
	ctx := context.Background()

	n, err := repo.ImportRegions(ctx, strings.NewReader("zip,region\n2134,\"Boston, Massachusetts\"\n48104,Ann Arbor\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	name, err := repo.RegionName(ctx, "02134")
	require.NoError(t, err)
	assert.Equal(t, "Boston, Massachusetts", name)

	_, err = repo.ImportRegions(ctx, strings.NewReader("zip,region\nabc,Nowhere\n"))
	require.ErrorContains(t, err, "line 2")

	_, err = repo.ImportRegions(ctx, strings.NewReader("zipcode,name\n48104,x\n"))
	require.ErrorContains(t, err, `missing column "zip"`)
}

func TestRepository_ImportNurseries(t *testing.T) {
	t.Parallel()

	repo := openTestRepository(t)
	ctx := context.Background()

	csv := "name,url,address,city,state,zip,served_zip,miles\n" +
		"Native Roots,https://nativeroots.test,2 Elm,Ann Arbor,MI,48103,48104,2.6\n" +
		"Native Roots,https://nativeroots.test,2 Elm,Ann Arbor,MI,48103,48103,0\n" +
		"Prairie Moon,,1 Main,Winona,MN,55987,48104,89.2\n"
	n, err := repo.ImportNurseries(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	nurseries, err := repo.FindNurseries(ctx, "48104")
	require.NoError(t, err)
	require.Len(t, nurseries, 2)
	assert.Equal(t, 3, nurseries[0].Miles)
	require.NotNil(t, nurseries[0].URL)
	assert.Equal(t, "https://nativeroots.test", *nurseries[0].URL)
	assert.Nil(t, nurseries[1].URL)
	assert.Equal(t, 89, nurseries[1].Miles)

	_, err = repo.ImportNurseries(ctx, strings.NewReader("name,url,address,city,state,zip,served_zip,miles\nX,,a,b,c,48104,48104,far\n"))
	require.ErrorContains(t, err, "miles")
}

func TestRepository_ImportWithoutDatabase(t *testing.T) {
	t.Parallel()

	_, err := NewRepository(nil, DriverSQLite).ImportRegions(context.Background(), strings.NewReader("zip,region\n"))
	require.ErrorIs(t, err, ErrUnavailable)
}

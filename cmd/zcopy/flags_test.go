package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeFlag(t *testing.T) {
	var f sizeFlag
	assert.Equal(t, "size", f.Type())
	assert.Empty(t, f.String())

	require.NoError(t, f.Set("64K"))
	assert.Equal(t, int64(64<<10), f.n)
	assert.Equal(t, "65536", f.String())

	assert.Error(t, f.Set("-1"))
	assert.Error(t, f.Set("lots"))
}

func TestSizeFlagOrConfig(t *testing.T) {
	fromConfig := "2M"

	var unset sizeFlag
	n, err := unset.orConfig(&fromConfig)
	require.NoError(t, err)
	assert.Equal(t, int64(2<<20), n)

	n, err = unset.orConfig(nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	var given sizeFlag
	require.NoError(t, given.Set("1K"))
	n, err = given.orConfig(&fromConfig)
	require.NoError(t, err)
	assert.Equal(t, int64(1024), n)

	bad := "nope"
	_, err = unset.orConfig(&bad)
	assert.Error(t, err)
}

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/vitrine/internal/gallery"
)

func TestListFlagsPatch(t *testing.T) {
	lf := listFlags{scope: "prompt", sort: "name", tags: true, from: "2024-03-01", to: "2024-03-02"}
	patch, err := lf.patch()
	require.NoError(t, err)

	tags, _ := patch.HasTags.Get()
	assert.True(t, tags)
	scope, _ := patch.SearchIn.Get()
	assert.Equal(t, gallery.SearchPrompt, scope)

	r, ok := patch.Range.Get()
	require.True(t, ok)
	require.NotNil(t, r.From)
	require.NotNil(t, r.To)
	assert.True(t, r.From.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)))
	assert.True(t, r.To.Equal(time.Date(2024, 3, 3, 0, 0, 0, 0, time.Local).Add(-time.Nanosecond)))
}

func TestListFlagsOpenRange(t *testing.T) {
	patch, err := listFlags{from: "2024-03-01T12:00:00Z"}.patch()
	require.NoError(t, err)
	r, ok := patch.Range.Get()
	require.True(t, ok)
	require.NotNil(t, r.From)
	assert.True(t, r.From.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))
	assert.Nil(t, r.To)
}

func TestListFlagsRejectsBadDates(t *testing.T) {
	_, err := listFlags{from: "March 1"}.patch()
	assert.ErrorContains(t, err, "--from")

	_, err = listFlags{from: "2024-03-02", to: "2024-03-01"}.patch()
	assert.ErrorContains(t, err, "before --from")
}

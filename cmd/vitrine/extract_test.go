package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/vitrine/internal/conflicts"
	"github.com/five82/vitrine/internal/gallery"
)

type overwriter struct {
	calls []string
}

func (o *overwriter) ExtractMetadata(_ context.Context, paths []string, force bool) (gallery.ExtractResult, error) {
	o.calls = append(o.calls, paths...)
	return gallery.ExtractResult{Succeeded: paths}, nil
}

func conflictQueue(r conflicts.Resolver, paths ...string) *conflicts.Queue {
	items := make([]gallery.Conflict, 0, len(paths))
	for _, p := range paths {
		items = append(items, gallery.Conflict{Path: p, Reason: "sidecar exists"})
	}
	return conflicts.NewQueue(r, items)
}

func TestResolveConflicts(t *testing.T) {
	r := &overwriter{}
	q := conflictQueue(r, "a.png", "b.png", "c.png")
	var out bytes.Buffer

	report, err := resolveConflicts(context.Background(), q, strings.NewReader("o\nwhat\ns\na\n"), &out)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.png"}, report.Overwritten)
	assert.Equal(t, []string{"b.png"}, report.Skipped)
	assert.Equal(t, []string{"c.png"}, report.Cancelled)
	assert.Equal(t, []string{"a.png"}, r.calls)
	assert.Contains(t, out.String(), "please answer o, s or a")
}

func TestResolveConflictsEndOfInputCancels(t *testing.T) {
	q := conflictQueue(&overwriter{}, "a.png", "b.png")
	var out bytes.Buffer

	report, err := resolveConflicts(context.Background(), q, strings.NewReader(""), &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.png"}, report.Cancelled)
	assert.True(t, q.Done())
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		in    string
		want  conflicts.Choice
		known bool
	}{
		{"o", conflicts.Overwrite, true},
		{" Overwrite ", conflicts.Overwrite, true},
		{"", conflicts.Skip, true},
		{"a", conflicts.CancelAll, true},
		{"maybe", conflicts.Skip, false},
	}
	for _, tt := range tests {
		got, known := parseChoice(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.known, known, tt.in)
	}
}

func TestImageFlags(t *testing.T) {
	img := gallery.Image{HasWorkflow: true, HasEdit: true}
	assert.Equal(t, "workflow,edited", imageFlags(img))
	assert.Empty(t, imageFlags(gallery.Image{}))
}

func TestImageTable(t *testing.T) {
	out := imageTable([]gallery.Image{{Filename: "a.png", Subfolder: "cats", Format: "png", HasPrompt: true}})
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "a.png")
	assert.Contains(t, out, "cats")
	assert.Contains(t, out, "prompt")
}

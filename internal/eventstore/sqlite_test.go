package eventstore

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndQueryByBuild(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.AppendJSON(ctx, "b1", TypeBuildStarted, BuildPayload{}))
	require.NoError(t, store.AppendJSON(ctx, "b1", TypeBuildCompleted, BuildPayload{
		Outcome:       "success",
		PagesRendered: 12,
		DurationMS:    150,
	}))
	require.NoError(t, store.AppendJSON(ctx, "b2", TypeBuildStarted, BuildPayload{}))

	events, err := store.ByBuild(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, TypeBuildStarted, events[0].Type)
	assert.Equal(t, TypeBuildCompleted, events[1].Type)

	var payload BuildPayload
	require.NoError(t, json.Unmarshal(events[1].Payload, &payload))
	assert.Equal(t, "success", payload.Outcome)
	assert.Equal(t, 12, payload.PagesRendered)
}

func TestQueryByRange(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.AppendJSON(ctx, "b1", TypeVerifyCompleted, VerifyPayload{
		LinksChecked: 40, Broken: 2, DurationMS: 900,
	}))

	now := time.Now()
	events, err := store.Range(ctx, now.Add(-time.Minute), now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, TypeVerifyCompleted, events[0].Type)

	past, err := store.Range(ctx, now.Add(-2*time.Hour), now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestMetadataRoundTrip(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Append(ctx, "b1", TypeBrokenLink,
		[]byte(`{"url":"https://example.com/gone"}`),
		map[string]string{"page": "guide.md"}))

	events, err := store.ByBuild(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "guide.md", events[0].Metadata["page"])
}

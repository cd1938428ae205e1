package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContextAccumulation(t *testing.T) {
	ctx := context.Background()
	ctx = WithRunID(ctx, "run-1")
	ctx = WithJob(ctx, "en-US", "installer")
	ctx = WithStage(ctx, "download")

	lc := GetContext(ctx)
	require.Equal(t, "run-1", lc.RunID)
	require.Equal(t, "en-US", lc.Locale)
	require.Equal(t, "installer", lc.Deliverable)
	require.Equal(t, "download", lc.Stage)
}

func TestContextOverwrite(t *testing.T) {
	ctx := WithStage(context.Background(), "download")
	ctx = WithStage(ctx, "upload")
	require.Equal(t, "upload", GetContext(ctx).Stage)
}

func TestEmptyContext(t *testing.T) {
	lc := GetContext(context.Background())
	require.Empty(t, lc.RunID)
	require.Empty(t, lc.Locale)
}

func TestGetLogAttrsSkipsEmptyFields(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-2")
	attrs := getLogAttrs(ctx)
	require.Len(t, attrs, 1)
	require.Equal(t, "run.id", attrs[0].Key)
}

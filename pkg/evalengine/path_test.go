package evalengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCtx() map[string]any {
	return map[string]any{
		"response": map[string]any{
			"text":  "hello world",
			"score": 0.82,
			"tags":  []any{"a", "b", "c"},
		},
		"records": []any{
			map[string]any{"id": "r1"},
			map[string]any{"id": "r2"},
		},
	}
}

func TestExtractPath(t *testing.T) {
	ctx := sampleCtx()

	v, err := ExtractPath(ctx, "response.text")
	require.NoError(t, err)
	assert.Equal(t, "hello world", v)

	v, err = ExtractPath(ctx, "response.tags[1]")
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	v, err = ExtractPath(ctx, "records[0].id")
	require.NoError(t, err)
	assert.Equal(t, "r1", v)

	_, err = ExtractPath(ctx, "response.missing")
	assert.Error(t, err)

	_, err = ExtractPath(ctx, "records[5].id")
	assert.Error(t, err)

	_, err = ExtractPath(ctx, "")
	assert.Error(t, err)

	_, err = ExtractPath(ctx, "response..text")
	assert.Error(t, err)
}

func TestResolveExpected(t *testing.T) {
	ctx := sampleCtx()

	v, err := ResolveExpected(ctx, "${response.score}")
	require.NoError(t, err)
	assert.Equal(t, 0.82, v)

	v, err = ResolveExpected(ctx, "literal")
	require.NoError(t, err)
	assert.Equal(t, "literal", v)

	v, err = ResolveExpected(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestRenderTemplate(t *testing.T) {
	ctx := sampleCtx()

	out, errs := RenderTemplate(ctx, "Response was: ${response.text} with score ${response.score}")
	assert.Empty(t, errs)
	assert.Equal(t, "Response was: hello world with score 0.82", out)

	out, errs = RenderTemplate(ctx, "Missing: ${response.nope}")
	assert.Len(t, errs, 1)
	assert.Equal(t, "Missing: ", out)
}

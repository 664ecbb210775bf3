package record_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earshot/pkg/record"
)

func payloadOf(t *testing.T, rec record.UntypedRecord) map[string]any {
	t.Helper()
	obj, err := rec.JSONObject()
	require.NoError(t, err)
	delete(obj, "$meta")
	return obj
}

func TestNewUntypedRejectsNonObjects(t *testing.T) {
	for name, value := range map[string]any{
		"string": "not an object",
		"array":  []any{1, 2, 3},
		"number": 42,
		"null":   nil,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := record.NewUntyped("media", "1", value)
			require.Error(t, err)

			var decErr *record.DecodingError
			assert.ErrorAs(t, err, &decErr)
			assert.ErrorIs(t, err, record.ErrNotAnObject)
		})
	}
}

func TestNewUntypedSynthesizesMeta(t *testing.T) {
	rec, err := record.NewUntyped("media", "42", map[string]any{"title": "X"})
	require.NoError(t, err)

	assert.Equal(t, "media_42", rec.GUID())
	assert.Equal(t, "media", rec.Type())
	assert.Equal(t, "42", rec.ID())

	meta := rec.Meta()
	assert.Zero(t, meta.Seq)
	assert.Zero(t, meta.Version)
	assert.Zero(t, meta.Timestamp)
	assert.Empty(t, meta.Source)
}

func TestDefaultMetaHasNoGUID(t *testing.T) {
	var meta record.Meta
	assert.Empty(t, meta.GUID)
	assert.Equal(t, "media_42", record.GUID("media", "42"))
}

func TestUntypedWireShape(t *testing.T) {
	rec, err := record.NewUntyped("media", "42", map[string]any{
		"title": "X",
		"guid":  "a payload key, not the envelope",
	})
	require.NoError(t, err)

	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(raw, &wire))

	// Envelope under the literal $meta key, payload flattened beside it.
	meta, ok := wire["$meta"].(map[string]any)
	require.True(t, ok, "expected $meta object, got %T", wire["$meta"])
	assert.Equal(t, "media", meta["type"])
	assert.Equal(t, "42", meta["id"])
	assert.Equal(t, "media_42", meta["guid"])
	assert.Equal(t, "X", wire["title"])
	assert.Equal(t, "a payload key, not the envelope", wire["guid"])
}

func TestUntypedUnmarshalDefaultsAbsentMeta(t *testing.T) {
	t.Run("missing $meta", func(t *testing.T) {
		var rec record.UntypedRecord
		require.NoError(t, json.Unmarshal([]byte(`{"title":"X"}`), &rec))
		assert.Empty(t, rec.GUID())
		assert.Empty(t, rec.Type())
	})

	t.Run("partial $meta derives the guid", func(t *testing.T) {
		var rec record.UntypedRecord
		require.NoError(t, json.Unmarshal([]byte(`{"$meta":{"type":"media","id":"1"},"title":"X"}`), &rec))
		assert.Equal(t, "media", rec.Type())
		assert.Equal(t, "1", rec.ID())
		assert.Equal(t, "media_1", rec.GUID())
		assert.Zero(t, rec.Meta().Seq)
	})

	t.Run("missing id leaves the guid empty", func(t *testing.T) {
		var rec record.UntypedRecord
		require.NoError(t, json.Unmarshal([]byte(`{"$meta":{"type":"media"},"title":"X"}`), &rec))
		assert.Empty(t, rec.GUID())
	})

	t.Run("non-object input", func(t *testing.T) {
		var rec record.UntypedRecord
		err := json.Unmarshal([]byte(`"nope"`), &rec)
		var decErr *record.DecodingError
		assert.ErrorAs(t, err, &decErr)
	})

	t.Run("null input", func(t *testing.T) {
		var rec record.UntypedRecord
		err := rec.UnmarshalJSON([]byte(`null`))
		assert.ErrorIs(t, err, record.ErrNotAnObject)
	})
}

func TestUntypedPreservesUnknownKeys(t *testing.T) {
	in := []byte(`{"$meta":{"type":"media","id":"42","guid":"media_42"},"title":"X","x-custom":{"a":[1,2]}}`)

	var rec record.UntypedRecord
	require.NoError(t, json.Unmarshal(in, &rec))

	out, err := json.Marshal(rec)
	require.NoError(t, err)

	var got, want map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	require.NoError(t, json.Unmarshal(in, &want))
	assert.Equal(t, want["x-custom"], got["x-custom"])
	assert.Equal(t, want["title"], got["title"])
}

func TestMergeSemantics(t *testing.T) {
	t.Run("null deletes, keys add, untouched keys survive", func(t *testing.T) {
		rec, err := record.NewUntyped("media", "1", map[string]any{"a": 1, "b": 2})
		require.NoError(t, err)

		require.NoError(t, rec.Merge([]byte(`{"b":null,"c":3}`)))
		assert.Equal(t, map[string]any{"a": float64(1), "c": float64(3)}, payloadOf(t, rec))
	})

	t.Run("nested objects merge recursively", func(t *testing.T) {
		rec, err := record.NewUntyped("media", "1", map[string]any{
			"nested": map[string]any{"keep": "yes", "drop": "no"},
		})
		require.NoError(t, err)

		require.NoError(t, rec.Merge([]byte(`{"nested":{"drop":null,"add":true}}`)))
		assert.Equal(t, map[string]any{
			"nested": map[string]any{"keep": "yes", "add": true},
		}, payloadOf(t, rec))
	})

	t.Run("non-object patch values replace wholesale", func(t *testing.T) {
		rec, err := record.NewUntyped("media", "1", map[string]any{
			"nested": map[string]any{"keep": "yes"},
		})
		require.NoError(t, err)

		require.NoError(t, rec.Merge([]byte(`{"nested":[1,2]}`)))
		assert.Equal(t, map[string]any{"nested": []any{float64(1), float64(2)}}, payloadOf(t, rec))
	})

	t.Run("scalar patch rejected, payload untouched", func(t *testing.T) {
		rec, err := record.NewUntyped("media", "1", map[string]any{"a": 1})
		require.NoError(t, err)

		err = rec.Merge([]byte(`5`))
		var encErr *record.EncodingError
		require.ErrorAs(t, err, &encErr)
		assert.Equal(t, map[string]any{"a": float64(1)}, payloadOf(t, rec))
	})

	t.Run("envelope is never patched", func(t *testing.T) {
		rec, err := record.NewUntyped("media", "1", map[string]any{"a": 1})
		require.NoError(t, err)

		require.NoError(t, rec.Merge([]byte(`{"$meta":{"type":"feed"}}`)))
		assert.Equal(t, "media", rec.Type())
	})
}

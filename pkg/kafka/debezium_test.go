package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDebeziumMessage(t *testing.T) {
	t.Run("envelope", func(t *testing.T) {
		payload, err := ParseDebeziumMessage([]byte(`{
			"schema": {"type": "struct"},
			"payload": {
				"before": null,
				"after": {"id": 7, "canonical_name": "Cote d'Ivoire"},
				"source": {"connector": "postgresql", "db": "reconcile", "schema": "public", "table": "country_data"},
				"op": "c",
				"ts_ms": 1700000000000
			}
		}`))
		require.NoError(t, err)
		assert.Equal(t, "country_data", payload.Source.Table)
		assert.True(t, payload.IsCreate())
		assert.Equal(t, "create", payload.OpName())
		assert.Equal(t, int64(1700000000000), payload.Timestamp().UnixMilli())
	})

	t.Run("bare payload", func(t *testing.T) {
		payload, err := ParseDebeziumMessage([]byte(`{"before":{"id":3},"after":null,"source":{"table":"entities"},"op":"d"}`))
		require.NoError(t, err)
		assert.Equal(t, "entities", payload.Source.Table)
		assert.True(t, payload.IsDelete())
		assert.Equal(t, "delete", payload.OpName())
	})

	t.Run("snapshot and update", func(t *testing.T) {
		payload, err := ParseDebeziumMessage([]byte(`{"op":"r","source":{"table":"country_names"}}`))
		require.NoError(t, err)
		assert.Equal(t, "snapshot", payload.OpName())

		payload, err = ParseDebeziumMessage([]byte(`{"op":"u","source":{"table":"country_names"}}`))
		require.NoError(t, err)
		assert.True(t, payload.IsUpdate())
		assert.Equal(t, "update", payload.OpName())
	})

	t.Run("tombstone", func(t *testing.T) {
		for _, raw := range []string{"", "  ", "null"} {
			_, err := ParseDebeziumMessage([]byte(raw))
			assert.ErrorIs(t, err, ErrTombstone)
		}
	})

	t.Run("not debezium", func(t *testing.T) {
		_, err := ParseDebeziumMessage([]byte(`{"hello":"world"}`))
		require.Error(t, err)

		_, err = ParseDebeziumMessage([]byte(`{broken`))
		require.Error(t, err)
	})
}

func TestTableFromTopic(t *testing.T) {
	assert.Equal(t, "country_names", TableFromTopic("owid.public.country_names"))
	assert.Equal(t, "entities", TableFromTopic("entities"))
}

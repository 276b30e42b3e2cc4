package internal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdoelhafi/file-loader-app/database/internal"
)

func TestCheckColumns(t *testing.T) {
	want := []internal.Column{
		{Name: "id", Type: "text"},
		{Name: "object_key", Type: "text", Nullable: true},
	}

	t.Run("match", func(t *testing.T) {
		got := map[string]internal.Column{
			"id":         {Name: "id", Type: "TEXT"},
			"object_key": {Name: "object_key", Type: "text", Nullable: true},
			"extra":      {Name: "extra", Type: "integer"},
		}
		assert.NoError(t, internal.CheckColumns("uploads", want, got))
	})

	t.Run("missing and mismatched", func(t *testing.T) {
		got := map[string]internal.Column{
			"id": {Name: "id", Type: "INTEGER", Nullable: true},
		}

		err := internal.CheckColumns("uploads", want, got)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "table uploads")
		assert.Contains(t, err.Error(), "missing columns: object_key")
		assert.Contains(t, err.Error(), "id: expected text, got integer")
		assert.Contains(t, err.Error(), "id: expected nullable=false, got nullable=true")
	})
}

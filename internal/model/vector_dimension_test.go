package model

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The vector(N) column tags are string literals, so nothing ties them to
// VectorDimension at compile time. This keeps them from drifting apart.
func TestVectorColumnsMatchVectorDimension(t *testing.T) {
	want := fmt.Sprintf("vector(%d)", VectorDimension)

	for _, tc := range []struct {
		model any
		field string
	}{
		{DocumentChunk{}, "Embedding"},
		{JobListing{}, "Embedding"},
	} {
		f, ok := reflect.TypeOf(tc.model).FieldByName(tc.field)
		require.True(t, ok, "%T has no field %s", tc.model, tc.field)
		assert.Contains(t, f.Tag.Get("gorm"), want, "%T.%s", tc.model, tc.field)
	}
}

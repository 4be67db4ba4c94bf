package hash

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSum64(t *testing.T) {
	tests := []struct {
		name string
		data string
		id   uint64
	}{
		{"empty string", "", 0xef46db3751d8e999},
		{"short string", "test", 0x4fdcca5ddb678139},
		{"long string", "this is a longer test string to hash", 0x69275f7f7ee59dbd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.id, Sum64(tt.data))
		})
	}
}

func TestKeySet_AddAndDetect(t *testing.T) {
	s := NewKeySet()

	require.False(t, s.Add("label"))
	require.False(t, s.Add("size"))
	require.Equal(t, 2, s.Len())

	require.True(t, s.Add("label"))
	require.True(t, s.Add("size"))
	require.Equal(t, 2, s.Len())
}

func TestKeySet_ManyDistinctKeys(t *testing.T) {
	s := NewKeySet()
	for i := 0; i < 10000; i++ {
		require.False(t, s.Add(fmt.Sprintf("key-%d", i)), "key-%d", i)
	}
	for i := 0; i < 10000; i++ {
		require.True(t, s.Add(fmt.Sprintf("key-%d", i)), "key-%d", i)
	}
	require.Equal(t, 10000, s.Len())
}

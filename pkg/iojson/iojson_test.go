package iojson

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteWith(t *testing.T) {
	var out, errOut bytes.Buffer

	err := WriteWith(&out, &errOut, map[string]any{"success": true, "threadId": "demo"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"threadId": "demo"`)
	assert.Empty(t, errOut.String())
}

func TestWriteWith_MarshalFailure(t *testing.T) {
	var out, errOut bytes.Buffer

	err := WriteWith(&out, &errOut, map[string]any{"bad": make(chan int)})
	require.NoError(t, err)
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "json_error")
}

func TestFileReader(t *testing.T) {
	type item struct {
		Level int    `json:"level"`
		Title string `json:"title"`
	}

	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "items.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"level":0,"title":"A"}]`), 0o644))

		fr := &FileReader[[]item]{fileFlagValue: path}
		got, err := fr.Read()
		require.NoError(t, err)
		assert.Equal(t, []item{{Level: 0, Title: "A"}}, got)
	})

	t.Run("from stdin", func(t *testing.T) {
		fr := &FileReader[[]item]{stdin: strings.NewReader(`[{"level":1,"title":"B"}]`)}
		got, err := fr.Read()
		require.NoError(t, err)
		assert.Equal(t, []item{{Level: 1, Title: "B"}}, got)
	})

	t.Run("invalid json", func(t *testing.T) {
		fr := &FileReader[[]item]{stdin: strings.NewReader(`{`)}
		_, err := fr.Read()
		require.ErrorContains(t, err, "decode JSON")
	})
}

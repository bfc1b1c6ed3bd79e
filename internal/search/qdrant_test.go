package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQdrantURL_HTTPSRemapsRestPortToGRPC(t *testing.T) {
	host, port, useTLS, err := parseQdrantURL("https://xyz.cloud.qdrant.io:6333")
	require.NoError(t, err)
	assert.Equal(t, "xyz.cloud.qdrant.io", host)
	assert.Equal(t, 6334, port)
	assert.True(t, useTLS)
}

func TestParseQdrantURL_HTTPLocalhostDefaultsToPlaintext(t *testing.T) {
	host, port, useTLS, err := parseQdrantURL("http://localhost:6334")
	require.NoError(t, err)
	assert.Equal(t, "localhost", host)
	assert.Equal(t, 6334, port)
	assert.False(t, useTLS)
}

func TestParseQdrantURL_MissingPortDefaultsToGRPCPort(t *testing.T) {
	_, port, _, err := parseQdrantURL("http://localhost")
	require.NoError(t, err)
	assert.Equal(t, 6334, port)
}

func TestParseQdrantURL_RejectsUnparseableURL(t *testing.T) {
	_, _, _, err := parseQdrantURL("not a url :::")
	assert.Error(t, err)
}

func TestParseQdrantURL_RejectsEmptyHost(t *testing.T) {
	_, _, _, err := parseQdrantURL("")
	assert.Error(t, err)
}

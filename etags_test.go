package imgcache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestETagIndexParse(t *testing.T) {
	testCases := []struct {
		description string
		data        string
		expected    map[string]string
	}{
		{
			description: "regular records",
			data:        "http://a v1\nhttp://b v2\n",
			expected:    map[string]string{"http://a": "v1", "http://b": "v2"},
		},
		{
			description: "truncated trailing record is ignored",
			data:        "http://a v1\nhttp://b v",
			expected:    map[string]string{"http://a": "v1"},
		},
		{
			description: "record without etag is skipped",
			data:        "http://a \nhttp://b v2\n",
			expected:    map[string]string{"http://b": "v2"},
		},
		{
			description: "record without url is skipped",
			data:        " v1\nhttp://b v2\n",
			expected:    map[string]string{"http://b": "v2"},
		},
		{
			description: "record without separator is skipped",
			data:        "garbage\nhttp://b v2\n",
			expected:    map[string]string{"http://b": "v2"},
		},
		{
			description: "empty file",
			data:        "",
			expected:    map[string]string{},
		},
	}

	for _, testCase := range testCases {
		index := newETagIndex()
		index.parse([]byte(testCase.data))
		assert.Equal(t, testCase.expected, index.entries, testCase.description)
	}
}

func TestETagIndexSetGetClear(t *testing.T) {
	index := newETagIndex()

	_, known := index.get("http://a")
	assert.False(t, known)

	index.set("http://a", "v1")
	etag, known := index.get("http://a")
	assert.True(t, known)
	assert.Equal(t, "v1", etag)

	index.set("http://a", "v2")
	etag, _ = index.get("http://a")
	assert.Equal(t, "v2", etag)

	// clearing keeps the entry, without a validator
	index.clearETag("http://a")
	etag, known = index.get("http://a")
	assert.True(t, known)
	assert.Empty(t, etag)

	// clearing an unknown URL adds nothing
	index.clearETag("http://nope")
	_, known = index.get("http://nope")
	assert.False(t, known)
}

func TestETagIndexEnsure(t *testing.T) {
	index := newETagIndex()

	index.ensure("http://a", "")
	etag, known := index.get("http://a")
	assert.True(t, known)
	assert.Empty(t, etag)

	// ensure never overwrites an existing entry
	index.set("http://b", "v1")
	index.ensure("http://b", "other")
	etag, _ = index.get("http://b")
	assert.Equal(t, "v1", etag)
}

func TestETagIndexClearByHash(t *testing.T) {
	index := newETagIndex()
	index.set("http://a", "v1")
	index.set("http://b", "v2")

	index.clearByHash(hashURL("http://a"))
	_, known := index.get("http://a")
	assert.False(t, known, "entry removed entirely")
	_, known = index.get("http://b")
	assert.True(t, known)

	// unknown hash is a no-op
	index.clearByHash(hashURL("http://nope"))
	assert.Len(t, index.entries, 1)
}

func TestETagIndexPersistRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), etagFile)

	index := newETagIndex()
	index.set("http://a", "v1")
	index.set("http://b", "v2")
	index.ensure("http://c", "") // no validator, must not be written

	require.NoError(t, index.persistIfDirty(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://a v1\nhttp://b v2\n", string(data))

	reloaded := newETagIndex()
	reloaded.loadFrom(path)
	assert.Equal(t, map[string]string{"http://a": "v1", "http://b": "v2"}, reloaded.entries)
}

func TestETagIndexPersistOnlyWhenDirty(t *testing.T) {
	path := filepath.Join(t.TempDir(), etagFile)

	index := newETagIndex()
	require.NoError(t, index.persistIfDirty(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "clean index must not touch the file")

	// entries without validators do not dirty the persisted form
	index.ensure("http://a", "")
	require.NoError(t, index.persistIfDirty(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	index.set("http://a", "v1")
	require.NoError(t, index.persistIfDirty(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://a v1\n", string(data))
}

func TestETagIndexLoadMissingFile(t *testing.T) {
	index := newETagIndex()
	index.loadFrom(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Empty(t, index.entries)
}

package extractor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDiscoveryFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "video_urls.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDiscovery(t *testing.T) {
	path := writeDiscoveryFile(t, `[
		{"id":"BV1aa","title":"第一个","url":"https://www.bilibili.com/video/BV1aa","author":"up主"},
		{"id":"BV1bb","title":"第二个","url":"https://www.bilibili.com/video/BV1bb","author":"up主"}
	]`)

	videos, err := LoadDiscovery(path)
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "BV1aa", videos[0].ID)
	assert.Equal(t, "第一个", videos[0].Title)
	assert.Equal(t, "up主", videos[1].Author)
}

func TestLoadDiscoveryDeduplicates(t *testing.T) {
	path := writeDiscoveryFile(t, `[
		{"id":"BV1aa","title":"first seen"},
		{"id":"BV1bb","title":"other"},
		{"id":"BV1aa","title":"duplicate"},
		{"id":"","title":"no id"}
	]`)

	videos, err := LoadDiscovery(path)
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "BV1aa", videos[0].ID)
	assert.Equal(t, "first seen", videos[0].Title, "first occurrence wins")
	assert.Equal(t, "BV1bb", videos[1].ID)
}

func TestLoadDiscoveryMissingFile(t *testing.T) {
	_, err := LoadDiscovery(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadDiscoveryMalformed(t *testing.T) {
	path := writeDiscoveryFile(t, `{"not":"an array"}`)
	_, err := LoadDiscovery(path)
	assert.Error(t, err)
}

func TestTitles(t *testing.T) {
	path := writeDiscoveryFile(t, `[{"id":"BV1aa","title":"标题甲"},{"id":"BV1bb","title":"标题乙"}]`)

	titles := Titles(path)
	assert.Equal(t, "标题甲", titles["BV1aa"])
	assert.Equal(t, "标题乙", titles["BV1bb"])

	assert.Nil(t, Titles(filepath.Join(t.TempDir(), "missing.json")))
}

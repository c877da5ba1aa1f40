package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", prefsFile)

	p := LoadFrom(path)
	assert.Equal(t, "", p.String(KeyLastImage))
	assert.Equal(t, 800.0, p.FloatWithFallback(KeyWindowWidth, 800))

	p.SetString(KeyLastImage, "/cards/card.png")
	p.SetFloat(KeyWindowWidth, 1024)
	require.NoError(t, p.Save())

	again := LoadFrom(path)
	assert.Equal(t, "/cards/card.png", again.String(KeyLastImage))
	assert.Equal(t, 1024.0, again.FloatWithFallback(KeyWindowWidth, 800))
}

func TestSaveSkipsUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), prefsFile)

	p := LoadFrom(path)
	require.NoError(t, p.Save())
	assert.NoFileExists(t, path)

	p.SetString(KeyLastImage, "a.png")
	require.NoError(t, p.Save())
	assert.FileExists(t, path)
}

func TestCorruptFileIsIgnored(t *testing.T) {
	for _, content := range []string{"[1,2", "null"} {
		path := filepath.Join(t.TempDir(), prefsFile)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		p := LoadFrom(path)
		assert.Equal(t, "", p.String(KeyLastImage), content)
		assert.NotPanics(t, func() {
			p.SetString(KeyLastImage, "b.png")
		}, content)
		assert.NoError(t, p.Save(), content)
	}
}

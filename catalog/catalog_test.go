package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteExampleAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, WriteExample(path))

	c, err := Load(path)
	require.NoError(t, err)

	assert.True(t, c.HasProject("general"))
	assert.True(t, c.HasProject("alpha"))
	assert.False(t, c.HasProject("skunkworks"))

	assert.True(t, c.HasService("3d-print"))
	assert.True(t, c.HasMachine("prusa-mk4"))
	assert.True(t, c.HasMaterial("pla"))
	assert.False(t, c.HasMaterial("titanium"))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadRejectsEmptyProjects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"projects":[]}`), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "no projects")
}

func TestLoadRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{projects`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestMaterialsFor(t *testing.T) {
	c := &Catalog{
		Machines: []Machine{
			{Key: "prusa-mk4", Materials: []string{"pla", "petg"}},
		},
	}
	assert.Equal(t, []string{"pla", "petg"}, c.MaterialsFor("prusa-mk4"))
	assert.Nil(t, c.MaterialsFor("unknown"))
}

package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkincode/papeleria/internal/domain"
)

func TestFlatStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.json")
	fs := OpenFlat(path)

	in := []domain.Product{
		{ID: 1, Nombre: "Lápiz HB", Precio: 0.5, Stock: 100},
		{ID: 2, Nombre: "Cuaderno A4", Precio: 2.5, Stock: 50},
	}
	require.NoError(t, fs.PutDoc(KeyProductos, in))

	// reopen from disk
	fs = OpenFlat(path)
	var out []domain.Product
	require.True(t, fs.GetDoc(KeyProductos, &out))
	assert.Equal(t, in, out)
}

func TestFlatStoreAbsentKey(t *testing.T) {
	fs := OpenFlat(filepath.Join(t.TempDir(), "local.json"))
	var out []domain.Product
	assert.False(t, fs.GetDoc(KeyProductos, &out))
	assert.Empty(t, out)
}

func TestFlatStoreMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	fs := OpenFlat(path)
	var out []domain.Product
	assert.False(t, fs.GetDoc(KeyProductos, &out))
}

func TestFlatStoreMalformedValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.json")
	fs := OpenFlat(path)
	require.NoError(t, fs.PutDoc(KeyCarrito, "not a list"))

	var out []domain.CartLine
	assert.False(t, fs.GetDoc(KeyCarrito, &out))
	assert.Empty(t, out)
}

func TestFlatStoreDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.json")
	fs := OpenFlat(path)
	require.NoError(t, fs.PutString(KeyRemoteToken, "abc"))
	require.NoError(t, fs.DeleteDoc(KeyRemoteToken))
	assert.Equal(t, "", fs.GetString(KeyRemoteToken))

	// deletion survives reopen
	fs = OpenFlat(path)
	assert.Equal(t, "", fs.GetString(KeyRemoteToken))

	// deleting an absent key is a no-op
	require.NoError(t, fs.DeleteDoc(KeyRemoteToken))
}

func TestFlatStoreWriteFailure(t *testing.T) {
	dir := t.TempDir()
	fs := OpenFlat(filepath.Join(dir, "sub", "missing", "local.json"))
	err := fs.PutString(KeyRemoteToken, "abc")
	require.Error(t, err)
	// failed write must not leave phantom state behind
	assert.Equal(t, "", fs.GetString(KeyRemoteToken))
}

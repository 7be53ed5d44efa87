package cart

import (
	"path/filepath"
	"testing"

	"github.com/asaskevich/EventBus"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkincode/papeleria/internal/domain"
	"github.com/talkincode/papeleria/internal/store"
)

func testFlat(t *testing.T) *store.FlatStore {
	t.Helper()
	return store.OpenFlat(filepath.Join(t.TempDir(), "papeleria_local.json"))
}

// brokenDocStore rejects every write.
type brokenDocStore struct{}

func (brokenDocStore) GetDoc(key string, out interface{}) bool { return false }
func (brokenDocStore) PutDoc(key string, v interface{}) error  { return errors.New("disk full") }
func (brokenDocStore) DeleteDoc(key string) error              { return errors.New("disk full") }

var lapiz = domain.Product{ID: 11, Nombre: "Lápiz HB", Precio: 0.5, Stock: 3, Foto: "/uploads/lapiz.jpg"}

func TestAddItemStockCeiling(t *testing.T) {
	m := NewManager(testFlat(t), nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, m.AddItem(lapiz))
	}
	err := m.AddItem(lapiz)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutOfStock)

	lines := m.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Cantidad)
	assert.Equal(t, "11", lines[0].ID)
}

func TestAddItemOutOfStock(t *testing.T) {
	m := NewManager(testFlat(t), nil)
	err := m.AddItem(domain.Product{ID: 5, Nombre: "Agotado", Stock: 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Empty(t, m.Lines())
}

func TestAddPackageUnbounded(t *testing.T) {
	m := NewManager(testFlat(t), nil)
	items := []string{"Lápiz HB", "Cuaderno A4"}
	for i := 0; i < 10; i++ {
		require.NoError(t, m.AddPackage("Regreso a Clases", 9.9, items))
	}

	lines := m.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, domain.PackageIDPrefix+"regreso-a-clases", lines[0].ID)
	assert.Equal(t, "Regreso a Clases (Paquete)", lines[0].Nombre)
	assert.Equal(t, 10, lines[0].Cantidad)
	assert.Equal(t, items, lines[0].Items)
	assert.True(t, lines[0].IsPackage())
}

func TestSetQuantityClamps(t *testing.T) {
	m := NewManager(testFlat(t), nil)
	require.NoError(t, m.AddItem(lapiz))

	require.NoError(t, m.SetQuantity("11", 99))
	assert.Equal(t, 3, m.Lines()[0].Cantidad)

	require.NoError(t, m.SetQuantity("11", 0))
	assert.Equal(t, 1, m.Lines()[0].Cantidad)

	require.NoError(t, m.SetQuantity("11", -5))
	assert.Equal(t, 1, m.Lines()[0].Cantidad)

	// unknown id is a silent no-op
	require.NoError(t, m.SetQuantity("999", 2))
	require.Len(t, m.Lines(), 1)
}

func TestAdjustQuantity(t *testing.T) {
	m := NewManager(testFlat(t), nil)
	require.NoError(t, m.AddItem(lapiz))

	require.NoError(t, m.AdjustQuantity("11", 1))
	assert.Equal(t, 2, m.Lines()[0].Cantidad)

	require.NoError(t, m.AdjustQuantity("11", -10))
	assert.Equal(t, 1, m.Lines()[0].Cantidad)

	require.NoError(t, m.AdjustQuantity("11", 10))
	assert.Equal(t, 3, m.Lines()[0].Cantidad)
}

func TestPackageQuantityHasNoCeiling(t *testing.T) {
	m := NewManager(testFlat(t), nil)
	require.NoError(t, m.AddPackage("Oficina", 5, nil))
	id := domain.PackageIDPrefix + "oficina"

	require.NoError(t, m.SetQuantity(id, 50))
	assert.Equal(t, 50, m.Lines()[0].Cantidad)
}

func TestRemoveAndClear(t *testing.T) {
	m := NewManager(testFlat(t), nil)
	require.NoError(t, m.AddItem(lapiz))
	require.NoError(t, m.AddPackage("Oficina", 5, nil))

	require.NoError(t, m.RemoveItem("11"))
	require.Len(t, m.Lines(), 1)

	// unknown id is a silent no-op
	require.NoError(t, m.RemoveItem("11"))
	require.Len(t, m.Lines(), 1)

	require.NoError(t, m.Clear())
	assert.Empty(t, m.Lines())
	assert.Zero(t, m.Count())
}

func TestCountAndTotal(t *testing.T) {
	m := NewManager(testFlat(t), nil)
	require.NoError(t, m.AddItem(lapiz))
	require.NoError(t, m.AddItem(lapiz))
	require.NoError(t, m.AddPackage("Oficina", 5, nil))

	assert.Equal(t, 3, m.Count())
	assert.InDelta(t, 0.5*2+5, m.Total(), 1e-9)
}

func TestCartRoundTrip(t *testing.T) {
	flat := testFlat(t)
	m := NewManager(flat, nil)
	require.NoError(t, m.AddItem(lapiz))
	require.NoError(t, m.AddPackage("Oficina", 5, []string{"Grapadora"}))

	m2 := NewManager(flat, nil)
	assert.Equal(t, m.Lines(), m2.Lines())
}

func TestPersistFailureRollsBack(t *testing.T) {
	m := NewManager(brokenDocStore{}, nil)

	err := m.AddItem(lapiz)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrPersistenceExhausted)
	assert.Empty(t, m.Lines())
}

func TestChangedTopicPublished(t *testing.T) {
	bus := EventBus.New()
	m := NewManager(testFlat(t), bus)

	changed := 0
	require.NoError(t, bus.Subscribe(TopicChanged, func() { changed++ }))

	require.NoError(t, m.AddItem(lapiz))
	require.NoError(t, m.Clear())
	bus.WaitAsync()
	assert.Equal(t, 2, changed)
}

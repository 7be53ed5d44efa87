// Package cart owns the in-memory cart list, enforces the quantity
// invariants and persists every mutation through the flat store.
package cart

import (
	"strconv"

	"github.com/asaskevich/EventBus"
	"github.com/pkg/errors"

	"github.com/talkincode/papeleria/internal/domain"
	"github.com/talkincode/papeleria/internal/store"
	"github.com/talkincode/papeleria/pkg/common"
)

// TopicChanged is published after every successfully persisted mutation.
const TopicChanged = "cart.changed"

// ErrOutOfStock means the referenced product has no remaining stock for
// the requested addition.
var ErrOutOfStock = errors.New("no hay más stock disponible")

type Manager struct {
	flat  store.DocStore
	bus   EventBus.Bus
	lines []domain.CartLine
}

// NewManager builds a cart manager and loads any persisted cart. A
// malformed or absent persisted cart starts empty.
func NewManager(flat store.DocStore, bus EventBus.Bus) *Manager {
	m := &Manager{flat: flat, bus: bus}
	m.flat.GetDoc(store.KeyCarrito, &m.lines)
	return m
}

// AddItem adds one unit of the product, creating a line with quantity 1
// or incrementing an existing one up to the stock ceiling snapshot.
// Out-of-stock products are rejected without touching the cart.
func (m *Manager) AddItem(p domain.Product) error {
	if p.Stock == 0 {
		return ErrOutOfStock
	}
	id := strconv.FormatInt(p.ID, 10)
	next := m.clone()
	if idx := indexOf(next, id); idx >= 0 {
		if next[idx].Cantidad >= next[idx].Stock {
			return ErrOutOfStock
		}
		next[idx].Cantidad++
	} else {
		next = append(next, domain.CartLine{
			ID:       id,
			Nombre:   p.Nombre,
			Precio:   p.Precio,
			Cantidad: 1,
			Foto:     p.Foto,
			Stock:    p.Stock,
		})
	}
	return m.persist(next)
}

// AddPackage adds a bundle line keyed by a slug of the package name.
// Package lines have no stock ceiling.
func (m *Manager) AddPackage(nombre string, precio float64, items []string) error {
	id := domain.PackageIDPrefix + common.Slugify(nombre)
	next := m.clone()
	if idx := indexOf(next, id); idx >= 0 {
		next[idx].Cantidad++
	} else {
		next = append(next, domain.CartLine{
			ID:       id,
			Nombre:   nombre + " (Paquete)",
			Precio:   precio,
			Cantidad: 1,
			Items:    items,
		})
	}
	return m.persist(next)
}

// SetQuantity sets the line quantity, clamped into [1, stock] for
// product lines. Unknown identifiers are a silent no-op.
func (m *Manager) SetQuantity(id string, cantidad int) error {
	next := m.clone()
	idx := indexOf(next, id)
	if idx < 0 {
		return nil
	}
	next[idx].Cantidad = clamp(next[idx], cantidad)
	return m.persist(next)
}

// AdjustQuantity applies a delta with the same clamping as SetQuantity.
func (m *Manager) AdjustQuantity(id string, delta int) error {
	next := m.clone()
	idx := indexOf(next, id)
	if idx < 0 {
		return nil
	}
	next[idx].Cantidad = clamp(next[idx], next[idx].Cantidad+delta)
	return m.persist(next)
}

// RemoveItem drops the line. Unknown identifiers are a silent no-op.
func (m *Manager) RemoveItem(id string) error {
	idx := indexOf(m.lines, id)
	if idx < 0 {
		return nil
	}
	next := m.clone()
	next = append(next[:idx], next[idx+1:]...)
	return m.persist(next)
}

func (m *Manager) Clear() error {
	return m.persist([]domain.CartLine{})
}

// Lines returns a copy of the cart.
func (m *Manager) Lines() []domain.CartLine {
	return m.clone()
}

// Count is the badge value: the sum of all line quantities.
func (m *Manager) Count() int {
	total := 0
	for _, l := range m.lines {
		total += l.Cantidad
	}
	return total
}

func (m *Manager) Total() float64 {
	total := 0.0
	for _, l := range m.lines {
		total += l.Subtotal()
	}
	return total
}

// persist writes the candidate list and commits it to memory only on
// success, so a failed save never shows state that is not durable.
func (m *Manager) persist(next []domain.CartLine) error {
	if err := m.flat.PutDoc(store.KeyCarrito, next); err != nil {
		return errors.Wrap(store.ErrPersistenceExhausted, err.Error())
	}
	m.lines = next
	if m.bus != nil {
		m.bus.Publish(TopicChanged)
	}
	return nil
}

func (m *Manager) clone() []domain.CartLine {
	out := make([]domain.CartLine, len(m.lines))
	copy(out, m.lines)
	return out
}

func clamp(l domain.CartLine, cantidad int) int {
	if cantidad < 1 {
		return 1
	}
	if !l.IsPackage() && cantidad > l.Stock {
		return l.Stock
	}
	return cantidad
}

func indexOf(lines []domain.CartLine, id string) int {
	for i, l := range lines {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// Package catalog owns the authoritative in-memory product list and
// decides which storage backend serves it: the structured bolt store
// first, the flat store as fallback, with a one-shot migration between
// the two.
package catalog

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/talkincode/papeleria/internal/domain"
	"github.com/talkincode/papeleria/internal/store"
	"github.com/talkincode/papeleria/pkg/common"
)

// Event bus topics published after successful persistence. The
// presentation layer re-renders on these.
const (
	TopicChanged    = "catalog.changed"
	TopicSyncFailed = "catalog.sync_failed"
)

// ErrValidation rejects a product mutation before any state change.
var ErrValidation = errors.New("required product fields missing or malformed")

// Mirror replicates local product mutations to the remote service.
// Replication is best-effort; failures never roll back local state.
type Mirror interface {
	Create(ctx context.Context, p domain.Product) (domain.Product, error)
	Update(ctx context.Context, serverID int64, p domain.Product) (domain.Product, error)
	Delete(ctx context.Context, serverID int64) error
}

type Manager struct {
	structured store.ProductStore
	flat       store.DocStore
	bus        EventBus.Bus
	mirror     Mirror
	productos  []domain.Product
}

// NewManager builds a catalog manager. structured may be nil when the
// environment has no usable bolt store; bus may be nil.
func NewManager(structured store.ProductStore, flat store.DocStore, bus EventBus.Bus) *Manager {
	return &Manager{structured: structured, flat: flat, bus: bus}
}

// SetMirror attaches the remote sync client once a session exists.
func (m *Manager) SetMirror(mr Mirror) {
	m.mirror = mr
}

// Load fills the in-memory list from whichever backend is authoritative.
// Failures are absorbed and logged; the caller always gets a usable
// list, seeded with the built-in defaults when every source is empty.
func (m *Manager) Load() []domain.Product {
	if m.structured != nil {
		items, err := m.structured.GetAll()
		switch {
		case err != nil:
			zap.L().Warn("catalog: structured store read failed", zap.Error(err))
		case len(items) > 0:
			m.productos = items
			return m.Products()
		default:
			if m.migrateFlatToStructured() {
				return m.Products()
			}
		}
	}

	var items []domain.Product
	m.flat.GetDoc(store.KeyProductos, &items)
	if len(items) > 0 {
		m.productos = items
		return m.Products()
	}

	m.productos = defaultProducts()
	if err := m.Save(); err != nil {
		zap.L().Warn("catalog: persisting seeded defaults failed", zap.Error(err))
	}
	return m.Products()
}

// Save persists the full list: structured store first, flat store as
// fallback. When both fail the in-memory list stays untouched and is
// the only remaining copy.
func (m *Manager) Save() error {
	if m.structured != nil {
		if err := m.structured.ReplaceAll(m.productos); err == nil {
			m.notify()
			return nil
		} else {
			zap.L().Warn("catalog: structured store write failed, falling back", zap.Error(err))
		}
	}
	if err := m.flat.PutDoc(store.KeyProductos, m.productos); err != nil {
		zap.L().Error("catalog: flat store write failed", zap.Error(err))
		return errors.Wrap(store.ErrPersistenceExhausted, err.Error())
	}
	m.notify()
	return nil
}

// AddProduct assigns an identifier, mirrors the record when a sync
// client is attached, appends it and persists.
func (m *Manager) AddProduct(ctx context.Context, p *domain.Product) error {
	if err := validate(p); err != nil {
		return err
	}
	now := time.Now()
	if p.ID == 0 {
		p.ID = common.UUIDint64()
	}
	p.Descripcion = common.IfEmptyStr(p.Descripcion, "Sin descripción")
	p.CreatedAt = now
	p.UpdatedAt = now

	if m.mirror != nil {
		row, err := m.mirror.Create(ctx, *p)
		if err != nil {
			m.syncFailed("create", p.Nombre, err)
		} else {
			p.ServerID = row.ID
			if row.Foto != "" {
				p.Foto = row.Foto
			}
		}
	}

	m.productos = append(m.productos, *p)
	return m.Save()
}

// UpdateProduct applies the mutation to the matching record and
// persists. Unknown identifiers are a silent no-op.
func (m *Manager) UpdateProduct(ctx context.Context, id int64, apply func(*domain.Product)) error {
	idx := m.indexOf(id)
	if idx < 0 {
		return nil
	}
	p := &m.productos[idx]
	apply(p)
	if err := validate(p); err != nil {
		return err
	}
	p.UpdatedAt = time.Now()

	if m.mirror != nil && p.ServerID != 0 {
		row, err := m.mirror.Update(ctx, p.ServerID, *p)
		if err != nil {
			m.syncFailed("update", p.Nombre, err)
		} else if row.Foto != "" {
			p.Foto = row.Foto
		}
	}
	return m.Save()
}

// RemoveProduct drops the record and persists. Unknown identifiers are
// a silent no-op.
func (m *Manager) RemoveProduct(ctx context.Context, id int64) error {
	idx := m.indexOf(id)
	if idx < 0 {
		return nil
	}
	removed := m.productos[idx]
	m.productos = append(m.productos[:idx], m.productos[idx+1:]...)

	if m.mirror != nil && removed.ServerID != 0 {
		if err := m.mirror.Delete(ctx, removed.ServerID); err != nil {
			m.syncFailed("delete", removed.Nombre, err)
		}
	}
	return m.Save()
}

// MirrorAll uploads every not-yet-mirrored product to the remote
// service, rewriting photos to server URLs. Returns mirrored and total
// counts; individual failures are warnings.
func (m *Manager) MirrorAll(ctx context.Context) (mirrored, total int) {
	if m.mirror == nil {
		return 0, len(m.productos)
	}
	total = len(m.productos)
	for i := range m.productos {
		p := &m.productos[i]
		if p.ServerID != 0 {
			mirrored++
			continue
		}
		row, err := m.mirror.Create(ctx, *p)
		if err != nil {
			m.syncFailed("migrate", p.Nombre, err)
			continue
		}
		p.ServerID = row.ID
		if row.Foto != "" {
			p.Foto = row.Foto
		}
		mirrored++
	}
	if err := m.Save(); err != nil {
		zap.L().Warn("catalog: saving mirrored products failed", zap.Error(err))
	}
	return mirrored, total
}

// Products returns a copy of the in-memory list.
func (m *Manager) Products() []domain.Product {
	out := make([]domain.Product, len(m.productos))
	copy(out, m.productos)
	return out
}

func (m *Manager) Find(id int64) (domain.Product, bool) {
	idx := m.indexOf(id)
	if idx < 0 {
		return domain.Product{}, false
	}
	return m.productos[idx], true
}

// ByCategoria filters the list; "Todos" returns everything.
func (m *Manager) ByCategoria(categoria string) []domain.Product {
	if categoria == "" || categoria == "Todos" {
		return m.Products()
	}
	var out []domain.Product
	for _, p := range m.productos {
		if p.Categoria == categoria {
			out = append(out, p)
		}
	}
	return out
}

// migrateFlatToStructured copies a non-empty flat-store product list
// into the structured store, removing the flat copy only after the
// structured write succeeded. Safe to retry; never raises.
func (m *Manager) migrateFlatToStructured() bool {
	if m.structured == nil {
		return false
	}
	var local []domain.Product
	m.flat.GetDoc(store.KeyProductos, &local)
	if len(local) == 0 {
		return false
	}
	if err := m.structured.ReplaceAll(local); err != nil {
		zap.L().Warn("catalog: migration write failed", zap.Error(err))
		return false
	}
	if err := m.flat.DeleteDoc(store.KeyProductos); err != nil {
		zap.L().Warn("catalog: removing migrated flat copy failed", zap.Error(err))
	}
	m.productos = local
	zap.L().Info("catalog: migrated product list to structured store",
		zap.Int("count", len(local)))
	return true
}

func (m *Manager) indexOf(id int64) int {
	for i, p := range m.productos {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) notify() {
	if m.bus != nil {
		m.bus.Publish(TopicChanged)
	}
}

func (m *Manager) syncFailed(action, nombre string, err error) {
	zap.L().Warn("catalog: remote sync failed, local copy stands",
		zap.String("action", action), zap.String("producto", nombre), zap.Error(err))
	if m.bus != nil {
		m.bus.Publish(TopicSyncFailed, action, nombre)
	}
}

func validate(p *domain.Product) error {
	if strings.TrimSpace(p.Nombre) == "" || strings.TrimSpace(p.Categoria) == "" {
		return ErrValidation
	}
	if p.Precio < 0 || math.IsNaN(p.Precio) || p.Stock < 0 {
		return ErrValidation
	}
	return nil
}

func defaultProducts() []domain.Product {
	now := time.Now()
	return []domain.Product{
		{
			ID:          common.UUIDint64(),
			Nombre:      "Lápiz HB",
			Precio:      0.5,
			Stock:       100,
			Categoria:   domain.CategoriaLapices,
			Descripcion: "Lápiz de grafito",
			Foto:        "https://via.placeholder.com/300x250?text=Lápiz+HB",
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          common.UUIDint64(),
			Nombre:      "Cuaderno A4",
			Precio:      2.5,
			Stock:       50,
			Categoria:   domain.CategoriaCuadernos,
			Descripcion: "Cuaderno rayado 100 hojas",
			Foto:        "https://via.placeholder.com/300x250?text=Cuaderno+A4",
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}

// Package settings manages the small keyed documents around the
// catalog: package promo texts, label visibility toggles, custom
// packages, the admin password gate and the remote session.
package settings

import (
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/talkincode/papeleria/internal/domain"
	"github.com/talkincode/papeleria/internal/store"
	"github.com/talkincode/papeleria/pkg/common"
)

// MaxAdminAttempts bounds consecutive failed admin password entries per
// session; the counter resets on success or password change.
const MaxAdminAttempts = 3

var (
	ErrPasswordMismatch = errors.New("contraseña actual incorrecta")
	ErrNoPassword       = errors.New("no hay contraseña establecida")
	ErrAttemptsExceeded = errors.New("intentos agotados")
)

type Manager struct {
	flat         store.KVStore
	attemptsLeft int
}

func NewManager(flat store.KVStore) *Manager {
	return &Manager{flat: flat, attemptsLeft: MaxAdminAttempts}
}

// PromosPaquetes reads the package promo text map. Values are decoded
// defensively; non-string values are coerced, absent map is empty.
func (m *Manager) PromosPaquetes() map[string]string {
	raw := map[string]interface{}{}
	m.flat.GetDoc(store.KeyPromosPaquetes, &raw)
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = cast.ToString(v)
	}
	return out
}

func (m *Manager) SavePromosPaquetes(promos map[string]string) error {
	return m.flat.PutDoc(store.KeyPromosPaquetes, promos)
}

// LabelSettings reads the badge visibility toggles, defaulting to all
// off when the document is absent or malformed.
func (m *Manager) LabelSettings() domain.LabelSettings {
	raw := map[string]interface{}{}
	m.flat.GetDoc(store.KeyAdminSettings, &raw)
	var s domain.LabelSettings
	if err := mapstructure.WeakDecode(raw, &s); err != nil {
		zap.L().Warn("settings: malformed label settings, using defaults", zap.Error(err))
		return domain.LabelSettings{}
	}
	return s
}

func (m *Manager) SaveLabelSettings(s domain.LabelSettings) error {
	return m.flat.PutDoc(store.KeyAdminSettings, s)
}

// Packages returns the admin-defined custom packages.
func (m *Manager) Packages() []domain.CustomPackage {
	var out []domain.CustomPackage
	m.flat.GetDoc(store.KeyPaquetes, &out)
	return out
}

// SavePackage inserts or updates one package, assigning an identifier
// to new entries.
func (m *Manager) SavePackage(p *domain.CustomPackage) error {
	if strings.TrimSpace(p.Nombre) == "" || p.Precio <= 0 || len(p.Items) == 0 {
		return errors.New("completa todos los campos del paquete")
	}
	paquetes := m.Packages()
	if p.ID == 0 {
		p.ID = common.UUIDint64()
		paquetes = append(paquetes, *p)
	} else {
		found := false
		for i := range paquetes {
			if paquetes[i].ID == p.ID {
				paquetes[i] = *p
				found = true
				break
			}
		}
		if !found {
			paquetes = append(paquetes, *p)
		}
	}
	return m.flat.PutDoc(store.KeyPaquetes, paquetes)
}

func (m *Manager) DeletePackage(id int64) error {
	paquetes := m.Packages()
	next := paquetes[:0]
	for _, p := range paquetes {
		if p.ID != id {
			next = append(next, p)
		}
	}
	if len(next) == len(paquetes) {
		return nil
	}
	return m.flat.PutDoc(store.KeyPaquetes, next)
}

// HasAdminPassword reports whether the admin panel is gated.
func (m *Manager) HasAdminPassword() bool {
	return m.flat.GetString(store.KeyAdminPwdHash) != ""
}

// SetAdminPassword stores the SHA-256 hex digest of nueva. When a
// password already exists the current one must verify first.
func (m *Manager) SetAdminPassword(current, nueva string) error {
	if nueva == "" {
		return errors.New("ingresa una nueva contraseña")
	}
	if m.HasAdminPassword() && !m.verify(current) {
		return ErrPasswordMismatch
	}
	if err := m.flat.PutString(store.KeyAdminPwdHash, common.Sha256Hash(nueva)); err != nil {
		return err
	}
	m.attemptsLeft = MaxAdminAttempts
	return nil
}

// RemoveAdminPassword drops the gate after verifying current.
func (m *Manager) RemoveAdminPassword(current string) error {
	if !m.HasAdminPassword() {
		return ErrNoPassword
	}
	if !m.verify(current) {
		return ErrPasswordMismatch
	}
	if err := m.flat.DeleteDoc(store.KeyAdminPwdHash); err != nil {
		return err
	}
	m.attemptsLeft = MaxAdminAttempts
	return nil
}

// VerifyAdminPassword checks password against the stored digest,
// consuming one attempt on failure and resetting the counter on
// success. With attempts exhausted it fails without checking.
func (m *Manager) VerifyAdminPassword(password string) error {
	if m.attemptsLeft <= 0 {
		return ErrAttemptsExceeded
	}
	if m.verify(password) {
		m.attemptsLeft = MaxAdminAttempts
		return nil
	}
	m.attemptsLeft--
	if m.attemptsLeft <= 0 {
		return ErrAttemptsExceeded
	}
	return ErrPasswordMismatch
}

func (m *Manager) AttemptsLeft() int {
	return m.attemptsLeft
}

func (m *Manager) ResetAttempts() {
	m.attemptsLeft = MaxAdminAttempts
}

func (m *Manager) verify(password string) bool {
	stored := m.flat.GetString(store.KeyAdminPwdHash)
	return stored != "" && common.Sha256Hash(password) == stored
}

// RemoteSession returns the stored remote token and base URL, both
// empty when disconnected.
func (m *Manager) RemoteSession() (token, serverURL string) {
	return m.flat.GetString(store.KeyRemoteToken), m.flat.GetString(store.KeyRemoteURL)
}

func (m *Manager) SaveRemoteSession(token, serverURL string) error {
	if err := m.flat.PutString(store.KeyRemoteToken, token); err != nil {
		return err
	}
	return m.flat.PutString(store.KeyRemoteURL, strings.TrimRight(serverURL, "/"))
}

func (m *Manager) ClearRemoteSession() error {
	if err := m.flat.DeleteDoc(store.KeyRemoteToken); err != nil {
		return err
	}
	return m.flat.DeleteDoc(store.KeyRemoteURL)
}

// Package store provides the two client-side persistence backends of the
// storefront: a transactional bbolt-backed product store and a flat
// JSON document store used as fallback and for small keyed documents.
package store

import (
	"github.com/pkg/errors"

	"github.com/talkincode/papeleria/internal/domain"
)

// Flat-store document keys, each holding one JSON-encoded value.
const (
	KeyProductos      = "productos"
	KeyCarrito        = "carrito"
	KeyPaquetes       = "paquetesPersonalizados"
	KeyPromosPaquetes = "promosPaquetes"
	KeyAdminSettings  = "adminSettings"
	KeyAdminPwdHash   = "adminPasswordHash"
	KeyRemoteToken    = "papeleria_token"
	KeyRemoteURL      = "papeleria_server_url"
)

var (
	// ErrStorageUnavailable means the structured backend cannot be used
	// in this environment. Callers fall back to the flat store.
	ErrStorageUnavailable = errors.New("structured storage unavailable")

	// ErrPersistenceExhausted means every backend failed to write. The
	// in-memory state is the only remaining copy.
	ErrPersistenceExhausted = errors.New("all storage backends failed")

	// ErrNotFound is returned by lookups for unknown identifiers.
	ErrNotFound = errors.New("record not found")
)

// ProductStore is the uniform get-all/replace-all contract over a single
// product collection. Record order is unspecified.
type ProductStore interface {
	GetAll() ([]domain.Product, error)
	ReplaceAll(items []domain.Product) error
}

// DocStore reads and writes whole JSON documents at fixed keys.
type DocStore interface {
	// GetDoc decodes the document at key into out. Absent or malformed
	// values are treated as absent and leave out untouched.
	GetDoc(key string, out interface{}) bool
	PutDoc(key string, v interface{}) error
	DeleteDoc(key string) error
}

// KVStore adds plain-string access on top of DocStore for the keys that
// hold bare values rather than JSON documents.
type KVStore interface {
	DocStore
	// GetString returns the stored string, empty when absent.
	GetString(key string) string
	PutString(key, value string) error
}

package domain

import "time"

// Product categories shown in the storefront filter bar. The set is
// extensible; unknown values read back from storage are kept as-is.
const (
	CategoriaLapices   = "Lápices"
	CategoriaCuadernos = "Cuadernos"
	CategoriaColores   = "Colores"
	CategoriaOtros     = "Otros"
)

var Categorias = []string{CategoriaLapices, CategoriaCuadernos, CategoriaColores, CategoriaOtros}

// Product is a catalog item. The same shape is used for client-side
// storage documents and REST service rows; field names follow the
// storefront wire contract (nombre/precio/stock/...).
type Product struct {
	ID          int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Nombre      string  `gorm:"index" json:"nombre" form:"nombre"`
	Precio      float64 `json:"precio" form:"precio"`
	Stock       int     `json:"stock" form:"stock"`
	Categoria   string  `gorm:"size:64" json:"categoria" form:"categoria"`
	Descripcion string  `json:"descripcion" form:"descripcion"`
	// Foto holds an embedded data URL, an absolute URL, or a
	// service-relative /uploads path.
	Foto  string `gorm:"size:1024" json:"foto" form:"foto"`
	Promo string `json:"promo" form:"promo"`
	// ServerID is set on client-side records once mirrored to the remote
	// service. Never stored in the service database.
	ServerID  int64     `gorm:"-" json:"serverId,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

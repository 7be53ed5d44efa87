package domain

import "strings"

// PackageIDPrefix marks cart lines that represent a bundled package
// rather than a single catalog product.
const PackageIDPrefix = "paquete-"

// CartLine is one cart entry. Product lines snapshot price and stock at
// add time; package lines carry their content descriptions and have no
// real stock constraint.
type CartLine struct {
	ID       string  `json:"id"`
	Nombre   string  `json:"nombre"`
	Precio   float64 `json:"precio"`
	Cantidad int     `json:"cantidad"`
	Foto     string  `json:"foto"`
	// Stock is the quantity ceiling snapshot of the referenced product.
	Stock int `json:"stock"`
	// Items lists package contents, descriptive strings only.
	Items []string `json:"items,omitempty"`
}

func (l CartLine) IsPackage() bool {
	return strings.HasPrefix(l.ID, PackageIDPrefix)
}

func (l CartLine) Subtotal() float64 {
	return l.Precio * float64(l.Cantidad)
}

// CustomPackage is an admin-defined bundle rendered alongside the fixed
// storefront packages.
type CustomPackage struct {
	ID     int64    `json:"id"`
	Nombre string   `json:"nombre"`
	Precio float64  `json:"precio"`
	Items  []string `json:"items"`
	Promo  string   `json:"promo"`
}

// LabelSettings controls promo badge visibility in the storefront.
type LabelSettings struct {
	MostrarProporcion bool `json:"mostrarProporcion" mapstructure:"mostrarProporcion"`
	MostrarDescuento  bool `json:"mostrarDescuento" mapstructure:"mostrarDescuento"`
}

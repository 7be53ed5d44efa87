// Command storefront is a sample client wiring the catalog and cart
// state managers over local storage, with optional remote mirroring
// when a stored session exists.
package main

import (
	"flag"
	"fmt"
	"path/filepath"

	"github.com/asaskevich/EventBus"

	"github.com/talkincode/papeleria/config"
	"github.com/talkincode/papeleria/internal/cart"
	"github.com/talkincode/papeleria/internal/catalog"
	"github.com/talkincode/papeleria/internal/order"
	"github.com/talkincode/papeleria/internal/remote"
	"github.com/talkincode/papeleria/internal/settings"
	"github.com/talkincode/papeleria/internal/store"
)

var (
	workdir  = flag.String("d", ".", "local storage directory")
	conffile = flag.String("c", "papeleria.yml", "config file path")
)

func main() {
	flag.Parse()
	cfg := config.LoadConfig(*conffile)

	flat := store.OpenFlat(filepath.Join(*workdir, "papeleria_local.json"))

	var structured store.ProductStore
	bolt, err := store.OpenBolt(filepath.Join(*workdir, "papeleria.bolt"))
	if err != nil {
		fmt.Printf("structured store unavailable, using flat store only: %v\n", err)
	} else {
		structured = bolt
		defer bolt.Close()
	}

	bus := EventBus.New()
	cat := catalog.NewManager(structured, flat, bus)

	sett := settings.NewManager(flat)
	if token, serverURL := sett.RemoteSession(); token != "" && serverURL != "" {
		cat.SetMirror(remote.NewClient(serverURL, token))
		fmt.Printf("remote sync enabled (%s)\n", serverURL)
	}

	productos := cat.Load()
	fmt.Printf("catálogo: %d productos\n", len(productos))
	for _, p := range productos {
		fmt.Printf("  [%d] %-20s $%.2f stock=%d %s\n", p.ID, p.Nombre, p.Precio, p.Stock, p.Categoria)
	}

	crt := cart.NewManager(flat, bus)
	if len(productos) > 0 {
		if err := crt.AddItem(productos[0]); err != nil {
			fmt.Printf("no se pudo agregar %s: %v\n", productos[0].Nombre, err)
		}
	}
	for _, paquete := range sett.Packages() {
		if err := crt.AddPackage(paquete.Nombre, paquete.Precio, paquete.Items); err != nil {
			fmt.Printf("no se pudo agregar paquete %s: %v\n", paquete.Nombre, err)
		}
	}

	fmt.Printf("carrito: %d artículos, total $%.2f\n", crt.Count(), crt.Total())
	if crt.Count() > 0 {
		link := order.Link(cfg.Storefront.WhatsappNumber, order.Message(crt.Lines()))
		fmt.Printf("pedido por WhatsApp:\n%s\n", link)
	}
}

package adminapi

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/talkincode/papeleria/internal/domain"
	"github.com/talkincode/papeleria/internal/webserver"
)

// MaxFotoSize caps uploaded product photos.
const MaxFotoSize = 5 * 1024 * 1024

// registerProductRoutes registers the product CRUD endpoints. Listing is
// public; mutations require a bearer token.
func registerProductRoutes() {
	webserver.PubGET("/api/products", listProducts)
	webserver.ApiPOST("/api/products", createProduct)
	webserver.ApiPUT("/api/products/:id", updateProduct)
	webserver.ApiDELETE("/api/products/:id", deleteProduct)
}

func listProducts(c echo.Context) error {
	rows := make([]domain.Product, 0)
	if err := GetDB(c).Order("id DESC").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Error DB")
	}
	return ok(c, rows)
}

func createProduct(c echo.Context) error {
	now := time.Now()
	row := domain.Product{
		Nombre:      strings.TrimSpace(c.FormValue("nombre")),
		Precio:      cast.ToFloat64(c.FormValue("precio")),
		Stock:       cast.ToInt(c.FormValue("stock")),
		Categoria:   c.FormValue("categoria"),
		Descripcion: c.FormValue("descripcion"),
		Promo:       c.FormValue("promo"),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if file, err := c.FormFile("foto"); err == nil {
		fotoPath, err := saveUpload(c, file)
		if err != nil {
			zap.L().Error("adminapi: photo upload failed", zap.Error(err))
			return fail(c, http.StatusInternalServerError, "Error guardando producto")
		}
		row.Foto = fotoPath
	}

	if err := GetDB(c).Create(&row).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Error guardando producto")
	}
	oprlog(c, "", "product_create", row.Nombre)
	return ok(c, row)
}

func updateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusNotFound, "No encontrado")
	}
	var existing domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&existing).Error; err != nil {
		return fail(c, http.StatusNotFound, "No encontrado")
	}

	// Blank fields keep the stored value, matching the client which only
	// resends what changed.
	if v := strings.TrimSpace(c.FormValue("nombre")); v != "" {
		existing.Nombre = v
	}
	if v := c.FormValue("precio"); v != "" {
		existing.Precio = cast.ToFloat64(v)
	}
	if v := c.FormValue("stock"); v != "" {
		existing.Stock = cast.ToInt(v)
	}
	if v := c.FormValue("categoria"); v != "" {
		existing.Categoria = v
	}
	if v := c.FormValue("descripcion"); v != "" {
		existing.Descripcion = v
	}
	if v := c.FormValue("promo"); v != "" {
		existing.Promo = v
	}
	if file, err := c.FormFile("foto"); err == nil {
		fotoPath, err := saveUpload(c, file)
		if err != nil {
			zap.L().Error("adminapi: photo upload failed", zap.Error(err))
			return fail(c, http.StatusInternalServerError, "Error actualizando")
		}
		existing.Foto = fotoPath
	}
	existing.UpdatedAt = time.Now()

	if err := GetDB(c).Save(&existing).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Error actualizando")
	}
	oprlog(c, "", "product_update", existing.Nombre)
	return ok(c, existing)
}

func deleteProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusNotFound, "No encontrado")
	}
	if err := GetDB(c).Where("id = ?", id).Delete(&domain.Product{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Error eliminando")
	}
	oprlog(c, "", "product_delete", c.Param("id"))
	return ok(c, echo.Map{"ok": true})
}

// saveUpload stores the photo under the uploads dir as
// <unix-ms>_<name> with whitespace collapsed, returning the
// service-relative path.
func saveUpload(c echo.Context, file *multipart.FileHeader) (string, error) {
	if file.Size > MaxFotoSize {
		return "", errors.Errorf("photo too large: %d bytes", file.Size)
	}
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := strings.Join(strings.Fields(file.Filename), "_")
	if name == "" {
		name = "photo.jpg"
	}
	filename := cast.ToString(time.Now().UnixMilli()) + "_" + name

	dstPath := filepath.Join(GetApp(c).Config().GetUploadsDir(), filename)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return "/uploads/" + filename, nil
}

package adminapi

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/talkincode/papeleria/config"
	"github.com/talkincode/papeleria/internal/app"
	"github.com/talkincode/papeleria/internal/domain"
	"github.com/talkincode/papeleria/internal/webserver"
	"github.com/talkincode/papeleria/pkg/common"
)

func setupServer(t *testing.T) (*config.AppConfig, *gorm.DB) {
	t.Helper()
	cfg := *config.DefaultAppConfig
	cfg.System.Workdir = t.TempDir()
	cfg.Logger.FileEnable = false
	require.NoError(t, common.MakeDir(cfg.GetUploadsDir()))

	db, err := gorm.Open(
		sqlite.Open(filepath.Join(cfg.System.Workdir, "papeleria.db")),
		&gorm.Config{Logger: glogger.Default.LogMode(glogger.Silent)})
	require.NoError(t, err)

	application := app.NewApplication(&cfg)
	application.OverrideDB(db)
	require.NoError(t, application.MigrateDB(false))

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.Admin.Password), bcrypt.DefaultCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&domain.SysUser{
		Email:    cfg.Admin.Email,
		Password: string(hashed),
	}).Error)

	webserver.Init(application)
	InitRouter()
	return &cfg, db
}

func doJSON(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echoContentType, "application/json")
	}
	rec := httptest.NewRecorder()
	webserver.Echo().ServeHTTP(rec, req)
	return rec
}

const echoContentType = "Content-Type"

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, jsoniter.Unmarshal(rec.Body.Bytes(), out))
}

func loginToken(t *testing.T, cfg *config.AppConfig) string {
	t.Helper()
	rec := doJSON(http.MethodPost, "/api/auth/login",
		`{"email":"`+cfg.Admin.Email+`","password":"`+cfg.Admin.Password+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res map[string]string
	decode(t, rec, &res)
	require.NotEmpty(t, res["token"])
	return res["token"]
}

func productForm(t *testing.T, fields map[string]string, fotoName string, foto []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fotoName != "" {
		fw, err := w.CreateFormFile("foto", fotoName)
		require.NoError(t, err)
		_, err = fw.Write(foto)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func doForm(method, path, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echoContentType, contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	webserver.Echo().ServeHTTP(rec, req)
	return rec
}

func TestRootEndpoint(t *testing.T) {
	setupServer(t)
	rec := doJSON(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res map[string]interface{}
	decode(t, rec, &res)
	assert.Equal(t, true, res["ok"])
	assert.Equal(t, "Papeleria API", res["message"])
}

func TestLoginContract(t *testing.T) {
	cfg, _ := setupServer(t)

	rec := doJSON(http.MethodPost, "/api/auth/login", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var res map[string]string
	decode(t, rec, &res)
	assert.Equal(t, "Faltan credenciales", res["error"])

	rec = doJSON(http.MethodPost, "/api/auth/login", `{"email":"nobody@local","password":"x"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	decode(t, rec, &res)
	assert.Equal(t, "Usuario no encontrado", res["error"])

	rec = doJSON(http.MethodPost, "/api/auth/login",
		`{"email":"`+cfg.Admin.Email+`","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	decode(t, rec, &res)
	assert.Equal(t, "Contraseña incorrecta", res["error"])

	token := loginToken(t, cfg)
	assert.NotEmpty(t, token)
}

func TestListProductsPublicAndEmpty(t *testing.T) {
	setupServer(t)
	rec := doJSON(http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	// an empty catalog is an empty JSON array, not null
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestMutationsRequireToken(t *testing.T) {
	setupServer(t)
	body, ct := productForm(t, map[string]string{"nombre": "Tijeras"}, "", nil)

	rec := doForm(http.MethodPost, "/api/products", "", body, ct)
	assert.NotEqual(t, http.StatusOK, rec.Code)

	rec = doForm(http.MethodPost, "/api/products", "garbage-token", body, ct)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProductCRUD(t *testing.T) {
	cfg, _ := setupServer(t)
	token := loginToken(t, cfg)

	body, ct := productForm(t, map[string]string{
		"nombre":      "Lápiz HB",
		"precio":      "0.5",
		"stock":       "100",
		"categoria":   domain.CategoriaLapices,
		"descripcion": "Lápiz de grafito",
	}, "mi foto.png", []byte("png-bytes"))
	rec := doForm(http.MethodPost, "/api/products", token, body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var created domain.Product
	decode(t, rec, &created)
	require.NotZero(t, created.ID)
	assert.Equal(t, "Lápiz HB", created.Nombre)
	assert.Equal(t, 0.5, created.Precio)
	assert.Equal(t, 100, created.Stock)
	require.True(t, strings.HasPrefix(created.Foto, "/uploads/"))
	// whitespace in the original filename is collapsed
	assert.Contains(t, created.Foto, "mi_foto.png")

	// the upload landed on disk
	saved := filepath.Join(cfg.GetUploadsDir(), strings.TrimPrefix(created.Foto, "/uploads/"))
	data, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)

	// listing is public and newest-first
	body2, ct2 := productForm(t, map[string]string{
		"nombre": "Cuaderno A4", "precio": "2.5", "stock": "50",
		"categoria": domain.CategoriaCuadernos,
	}, "", nil)
	rec = doForm(http.MethodPost, "/api/products", token, body2, ct2)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []domain.Product
	decode(t, rec, &rows)
	require.Len(t, rows, 2)
	assert.Equal(t, "Cuaderno A4", rows[0].Nombre)

	// partial update: blank fields keep stored values
	upd, uct := productForm(t, map[string]string{"precio": "0.75"}, "", nil)
	rec = doForm(http.MethodPut, "/api/products/"+strconv.FormatInt(created.ID, 10), token, upd, uct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated domain.Product
	decode(t, rec, &updated)
	assert.Equal(t, "Lápiz HB", updated.Nombre)
	assert.Equal(t, 0.75, updated.Precio)
	assert.Equal(t, created.Foto, updated.Foto)

	// delete
	rec = doForm(http.MethodDelete, "/api/products/"+strconv.FormatInt(created.ID, 10), token, &bytes.Buffer{}, "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusOK, rec.Code)
	var res map[string]interface{}
	decode(t, rec, &res)
	assert.Equal(t, true, res["ok"])

	rec = doJSON(http.MethodGet, "/api/products", "")
	decode(t, rec, &rows)
	assert.Len(t, rows, 1)
}

func TestUpdateUnknownProduct(t *testing.T) {
	cfg, _ := setupServer(t)
	token := loginToken(t, cfg)

	body, ct := productForm(t, map[string]string{"nombre": "X"}, "", nil)
	rec := doForm(http.MethodPut, "/api/products/999999", token, body, ct)
	require.Equal(t, http.StatusNotFound, rec.Code)
	var res map[string]string
	decode(t, rec, &res)
	assert.Equal(t, "No encontrado", res["error"])

	rec = doForm(http.MethodPut, "/api/products/not-a-number", token, body, ct)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoginRecordsOprLog(t *testing.T) {
	cfg, db := setupServer(t)
	loginToken(t, cfg)

	var logs []domain.SysOprLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "login", logs[0].OptAction)
	assert.Equal(t, cfg.Admin.Email, logs[0].OprName)

	var user domain.SysUser
	require.NoError(t, db.Where("email = ?", cfg.Admin.Email).First(&user).Error)
	assert.False(t, user.LastLogin.IsZero())
}

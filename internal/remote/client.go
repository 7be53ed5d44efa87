// Package remote mirrors local catalog mutations to the storefront REST
// service. Mirroring is best-effort: callers keep their local state when
// a call fails.
package remote

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/guonaihong/gout"
	"github.com/pkg/errors"

	"github.com/talkincode/papeleria/internal/domain"
)

// ErrSyncFailed wraps every failed mirror call.
var ErrSyncFailed = errors.New("remote sync failed")

type loginResponse struct {
	Token string `json:"token"`
	Error string `json:"error"`
}

// Login authenticates against the service and returns the bearer token.
func Login(ctx context.Context, serverURL, email, password string) (string, error) {
	var res loginResponse
	var code int
	err := gout.POST(strings.TrimRight(serverURL, "/") + "/api/auth/login").
		WithContext(ctx).
		SetJSON(gout.H{"email": email, "password": password}).
		BindJSON(&res).
		Code(&code).
		Do()
	if err != nil {
		return "", errors.Wrap(ErrSyncFailed, err.Error())
	}
	if code != http.StatusOK {
		msg := res.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", code)
		}
		return "", errors.Wrap(ErrSyncFailed, msg)
	}
	return res.Token, nil
}

// Client calls the product endpoints of one authenticated session.
type Client struct {
	baseURL string
	token   string
}

func NewClient(serverURL, token string) *Client {
	return &Client{baseURL: strings.TrimRight(serverURL, "/"), token: token}
}

// PhotoURL turns a service-relative photo path into an absolute URL.
// Absolute and embedded values pass through unchanged.
func (c *Client) PhotoURL(foto string) string {
	if foto == "" || !strings.HasPrefix(foto, "/") {
		return foto
	}
	return c.baseURL + foto
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var rows []domain.Product
	var code int
	err := gout.GET(c.baseURL + "/api/products").
		WithContext(ctx).
		BindJSON(&rows).
		Code(&code).
		Do()
	if err := c.callError(err, code); err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Foto = c.PhotoURL(rows[i].Foto)
	}
	return rows, nil
}

// Create mirrors a product creation as a multipart request. Embedded
// data-URL photos are uploaded as files; the returned row carries the
// server identifier and an absolutized photo URL.
func (c *Client) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	var row domain.Product
	var code int
	err := gout.POST(c.baseURL+"/api/products").
		WithContext(ctx).
		SetHeader(gout.H{"Authorization": "Bearer " + c.token}).
		SetForm(c.productForm(p)).
		BindJSON(&row).
		Code(&code).
		Do()
	if err := c.callError(err, code); err != nil {
		return domain.Product{}, err
	}
	row.Foto = c.PhotoURL(row.Foto)
	return row, nil
}

// Update mirrors a product update; the photo field is only resent when
// it still holds an embedded image.
func (c *Client) Update(ctx context.Context, serverID int64, p domain.Product) (domain.Product, error) {
	var row domain.Product
	var code int
	err := gout.PUT(fmt.Sprintf("%s/api/products/%d", c.baseURL, serverID)).
		WithContext(ctx).
		SetHeader(gout.H{"Authorization": "Bearer " + c.token}).
		SetForm(c.productForm(p)).
		BindJSON(&row).
		Code(&code).
		Do()
	if err := c.callError(err, code); err != nil {
		return domain.Product{}, err
	}
	row.Foto = c.PhotoURL(row.Foto)
	return row, nil
}

func (c *Client) Delete(ctx context.Context, serverID int64) error {
	var code int
	err := gout.DELETE(fmt.Sprintf("%s/api/products/%d", c.baseURL, serverID)).
		WithContext(ctx).
		SetHeader(gout.H{"Authorization": "Bearer " + c.token}).
		Code(&code).
		Do()
	return c.callError(err, code)
}

func (c *Client) productForm(p domain.Product) gout.H {
	form := gout.H{
		"nombre":      p.Nombre,
		"precio":      fmt.Sprintf("%g", p.Precio),
		"stock":       fmt.Sprintf("%d", p.Stock),
		"categoria":   p.Categoria,
		"descripcion": p.Descripcion,
		"promo":       p.Promo,
	}
	if data, mime, ok := decodeDataURL(p.Foto); ok {
		form["foto"] = gout.FormType{
			FileName:    fotoFileName(p.Nombre),
			ContentType: mime,
			File:        gout.FormMem(data),
		}
	}
	return form
}

func (c *Client) callError(err error, code int) error {
	if err != nil {
		return errors.Wrap(ErrSyncFailed, err.Error())
	}
	if code != http.StatusOK {
		return errors.Wrapf(ErrSyncFailed, "status %d", code)
	}
	return nil
}

// decodeDataURL splits a data: URL into raw bytes and mime type.
func decodeDataURL(foto string) ([]byte, string, bool) {
	if !strings.HasPrefix(foto, "data:") {
		return nil, "", false
	}
	meta, payload, found := strings.Cut(foto, ",")
	if !found {
		return nil, "", false
	}
	mime := "image/jpeg"
	meta = strings.TrimPrefix(meta, "data:")
	if idx := strings.Index(meta, ";"); idx > 0 {
		mime = meta[:idx]
	} else if meta != "" {
		mime = meta
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", false
	}
	return data, mime, true
}

func fotoFileName(nombre string) string {
	name := strings.Join(strings.Fields(nombre), "_")
	if name == "" {
		name = "photo"
	}
	return name + ".jpg"
}

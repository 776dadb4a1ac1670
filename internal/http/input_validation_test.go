package handlers_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

func TestCartInputValidation(t *testing.T) {
	a := newTestApp(t)
	admin := a.login(t, adminEmail)
	cust := a.customer(t, "cust@example.com")
	lamp := a.product(t, admin, "Lamp", "10.00", 5)

	cases := []struct {
		name string
		body any
		want int
	}{
		{"zero quantity", map[string]any{"productId": lamp, "quantity": 0}, http.StatusBadRequest},
		{"negative quantity", map[string]any{"productId": lamp, "quantity": -2}, http.StatusBadRequest},
		{"missing product id", map[string]any{"quantity": 1}, http.StatusBadRequest},
		{"bad product id", map[string]any{"productId": "../etc", "quantity": 1}, http.StatusBadRequest},
		{"unknown product", map[string]any{"productId": "nope", "quantity": 1}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := a.do(t, "POST", "/cart/add", cust, tc.body)
			require.Equal(t, tc.want, resp.StatusCode, string(body))
		})
	}

	req := httptest.NewRequest("POST", "/cart/add", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cust)
	resp, _ := a.send(t, req)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Removing from a cart that was never created.
	other := a.customer(t, "other@example.com")
	resp, _ = a.do(t, "POST", "/cart/remove/"+lamp, other, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = a.do(t, "POST", "/cart/clear", other, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Removing a product that is not in the cart is a no-op.
	resp, _ = a.do(t, "POST", "/cart/add", cust, map[string]any{"productId": lamp, "quantity": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body := a.do(t, "POST", "/cart/remove/absent", cust, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, decode[cartBody](t, body).Items, 1)
}

func TestListingValidation(t *testing.T) {
	a := newTestApp(t)
	admin := a.login(t, adminEmail)
	for i := 0; i < 3; i++ {
		a.product(t, admin, "Red Mug", "4.00", 1)
	}
	a.product(t, admin, "Desk", "90.00", 1)

	for _, q := range []string{"limit=0x", "limit=0", "limit=", "limit=101", "limit=-1", "skip=-1", "skip=abc", "search=%3Cscript%3E"} {
		resp, _ := a.do(t, "GET", "/products?"+q, admin, nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}

	resp, body := a.do(t, "GET", "/products?search=mug&limit=2", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.Len(t, decode[[]domain.Product](t, body), 2)

	resp, body = a.do(t, "GET", "/products?search=mug&skip=2", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, decode[[]domain.Product](t, body), 1)

	resp, body = a.do(t, "GET", "/products?category=misc", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, decode[[]domain.Product](t, body), 4)
}

func TestCheckoutAndProductValidation(t *testing.T) {
	a := newTestApp(t)
	admin := a.login(t, adminEmail)
	cust := a.customer(t, "cust@example.com")
	lamp := a.product(t, admin, "Lamp", "10.00", 5)

	resp, _ := a.do(t, "POST", "/cart/add", cust, map[string]any{"productId": lamp, "quantity": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body := a.do(t, "POST", "/orders/checkout", cust, map[string]any{"shippingAddress": map[string]string{"city": "X"}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, errorMessage(t, body), "shipping address")

	for _, in := range []map[string]any{
		{"name": "", "price": "1"},
		{"name": "x", "price": "-1"},
		{"name": "x", "price": "1", "stock": -4},
	} {
		resp, _ := a.do(t, "POST", "/admin/products", admin, in)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, in)
	}
	resp, _ = a.do(t, "PUT", "/admin/inventory/"+lamp, admin, map[string]int{"qty": -1})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = a.do(t, "PUT", "/admin/inventory/"+lamp, admin, map[string]string{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = a.do(t, "PUT", "/admin/inventory/missing", admin, map[string]int{"qty": 1})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func multipartImage(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadImage(t *testing.T) {
	a := newTestApp(t)
	admin := a.login(t, adminEmail)
	cust := a.customer(t, "cust@example.com")
	lamp := a.product(t, admin, "Lamp", "10.00", 5)
	gif := []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")

	upload := func(field, name string, data []byte) (*http.Response, []byte) {
		body, ct := multipartImage(t, field, name, data)
		req := httptest.NewRequest("POST", "/admin/products/"+lamp+"/upload-image", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("Authorization", "Bearer "+admin)
		return a.send(t, req)
	}

	resp, _ := upload("image", "evil.exe", gif)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = upload("file", "a.gif", gif)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := upload("image", "lamp.gif", gif)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	p := decode[domain.Product](t, body)
	require.True(t, strings.HasPrefix(p.ImageURL, "/uploads/"), p.ImageURL)

	resp, body = a.do(t, "GET", p.ImageURL, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, gif, body)

	resp, body = a.do(t, "GET", "/products/"+lamp, cust, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, p.ImageURL, decode[domain.Product](t, body).ImageURL)
}

func TestUploadsTraversalBlocked(t *testing.T) {
	a := newTestApp(t)
	logs := observe(t)
	for _, path := range []string{"/uploads/..%2f..%2fetc%2fpasswd", "/uploads/%2e%2e/secret", "/uploads/a/../../x"} {
		resp, _ := a.do(t, "GET", path, "", nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
	require.NotEmpty(t, logs.FilterMessage("media.traversal.block").All())
}

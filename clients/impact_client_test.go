package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "catalog-sync-service/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImpactServer(t *testing.T, handler http.HandlerFunc) *ImpactClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewImpactClient(ImpactOptions{BaseURL: srv.URL, AccountSID: "IRsid", AuthToken: "tok"})
}

func TestFetchPage_DecodesItems(t *testing.T) {
	client := newImpactServer(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "IRsid", user)
		assert.Equal(t, "tok", pass)
		assert.Equal(t, "/Mediapartners/IRsid/Catalogs/77/Items", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("page"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Items":[
			{"CatalogItemId":"A1","IsParent":"true","Name":"Queen Firm Mattress","Manufacturer":"Acme"},
			{"CatalogItemId":"A1-V1","ParentSku":"A1","IsParent":false,"Size":"Queen","StockAvailability":"InStock"},
			{"Name":"no id"}
		]}`))
	})

	page, err := client.FetchPage(context.Background(), "77", 3)
	require.NoError(t, err)
	items := page.Items
	require.Len(t, items, 2)
	assert.Equal(t, 1, page.Skipped)
	assert.False(t, page.Exhausted())
	assert.True(t, items[0].IsParentDefining())
	assert.Equal(t, "Acme", items[0].Manufacturer)
	assert.True(t, items[1].HasDeclaredParent())
	assert.Equal(t, "InStock", items[1].StockState)
}

func TestFetchPage_EmptyMeansExhausted(t *testing.T) {
	client := newImpactServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Items":[]}`))
	})

	page, err := client.FetchPage(context.Background(), "77", 9)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.True(t, page.Exhausted())
}

func TestFetchPage_AllInvalidIsNotExhausted(t *testing.T) {
	client := newImpactServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Items":[{"Name":"no id"},{"Name":"also no id","Manufacturer":"Acme"}]}`))
	})

	page, err := client.FetchPage(context.Background(), "77", 2)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 2, page.Skipped)
	assert.False(t, page.Exhausted())
}

func TestFetchPage_HTTPErrorIsTransport(t *testing.T) {
	client := newImpactServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.FetchPage(context.Background(), "77", 1)
	assert.ErrorIs(t, err, apperrors.ErrTransport)
}

func TestFetchPage_BadJSONIsParse(t *testing.T) {
	client := newImpactServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})

	_, err := client.FetchPage(context.Background(), "77", 1)
	assert.ErrorIs(t, err, apperrors.ErrParse)
}

func TestFetchPage_UnreachableIsTransport(t *testing.T) {
	client := NewImpactClient(ImpactOptions{BaseURL: "http://127.0.0.1:1"})

	_, err := client.FetchPage(context.Background(), "77", 1)
	assert.ErrorIs(t, err, apperrors.ErrTransport)
}

func TestListCatalogs(t *testing.T) {
	client := newImpactServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Mediapartners/IRsid/Catalogs", r.URL.Path)
		_, _ = w.Write([]byte(`{"Catalogs":[{"Id":"77","Name":"Acme Sleep"}]}`))
	})

	catalogs, err := client.ListCatalogs(context.Background())
	require.NoError(t, err)
	require.Len(t, catalogs, 1)
	assert.Equal(t, "77", catalogs[0].ID)
	assert.Equal(t, "Acme Sleep", catalogs[0].Name)
}

func TestListCatalogs_EmptyIsNotFound(t *testing.T) {
	client := newImpactServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Catalogs":[]}`))
	})

	_, err := client.ListCatalogs(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, "No catalogs found", err.Error())
}

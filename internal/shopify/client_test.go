package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(srv *httptest.Server) *Client {
	return &Client{
		httpClient: srv.Client(),
		baseURL:    srv.URL,
		token:      "test-token",
		pageSize:   2,
		log:        zap.NewNop(),
	}
}

func TestListCustomersPageFollowsLinkHeader(t *testing.T) {
	var requests []string
	pages := [][]Customer{
		{{ID: 1}, {ID: 2}},
		{{ID: 3}, {ID: 4}},
		{{ID: 5}},
	}

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.String())
		require.Equal(t, "test-token", r.Header.Get("X-Shopify-Access-Token"))

		page := 0
		if p := r.URL.Query().Get("page"); p != "" {
			fmt.Sscanf(p, "%d", &page)
		}
		if page < len(pages)-1 {
			w.Header().Set("Link", fmt.Sprintf(`<%s/customers.json?limit=2&page=%d>; rel="next"`, srv.URL, page+1))
		}
		json.NewEncoder(w).Encode(map[string]any{"customers": pages[page]})
	}))
	defer srv.Close()

	client := newTestClient(srv)

	var all []Customer
	next := ""
	for {
		customers, n, err := client.ListCustomersPage(context.Background(), next)
		require.NoError(t, err)
		all = append(all, customers...)
		if n == "" {
			break
		}
		next = n
	}

	require.Len(t, requests, 3)
	require.Len(t, all, 5)
	for i, c := range all {
		assert.Equal(t, int64(i+1), c.ID)
	}
}

func TestGetCustomerNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":"Not Found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(srv)

	_, err := client.GetCustomer(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestListOrdersServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(srv)

	_, err := client.ListOrders(context.Background(), 42)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Contains(t, apiErr.Body, "upstream exploded")
}

func TestTransportErrorClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := newTestClient(srv)

	_, err := client.GetCustomer(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestUpdateTagsSerializesFullSet(t *testing.T) {
	var got customerPatchEnvelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := newTestClient(srv)

	err := client.UpdateTags(context.Background(), 42, []string{"loyal", "VIP-Customer"})
	require.NoError(t, err)
	require.NotNil(t, got.Customer.Tags)
	assert.Equal(t, int64(42), got.Customer.ID)
	assert.Equal(t, "loyal, VIP-Customer", *got.Customer.Tags)
	assert.Nil(t, got.Customer.Note)
}

func TestAppendNotePreservesExistingNote(t *testing.T) {
	var got customerPatchEnvelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"customer": Customer{ID: 42, Note: "existing note"},
			})
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	client := newTestClient(srv)

	err := client.AppendNote(context.Background(), 42, "new line")
	require.NoError(t, err)
	require.NotNil(t, got.Customer.Note)
	assert.Equal(t, "existing note\nnew line", *got.Customer.Note)
	assert.Nil(t, got.Customer.Tags)
}

func TestAppendNoteEmptyExistingNote(t *testing.T) {
	var got customerPatchEnvelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{"customer": Customer{ID: 42}})
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	client := newTestClient(srv)

	require.NoError(t, client.AppendNote(context.Background(), 42, "first line"))
	require.NotNil(t, got.Customer.Note)
	assert.Equal(t, "first line", *got.Customer.Note)
}

func TestNextPageURL(t *testing.T) {
	cases := []struct {
		name string
		link string
		want string
	}{
		{
			name: "next only",
			link: `<https://shop.example/admin/api/2023-10/customers.json?page_info=abc&limit=250>; rel="next"`,
			want: "https://shop.example/admin/api/2023-10/customers.json?page_info=abc&limit=250",
		},
		{
			name: "previous and next",
			link: `<https://shop.example/prev>; rel="previous", <https://shop.example/next>; rel="next"`,
			want: "https://shop.example/next",
		},
		{
			name: "previous only",
			link: `<https://shop.example/prev>; rel="previous"`,
			want: "",
		},
		{
			name: "empty",
			link: "",
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, nextPageURL(tc.link))
		})
	}
}

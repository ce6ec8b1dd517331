package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/faucet-analytics/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeletedFaucets(t *testing.T) {
	t.Run("lowercases returned addresses", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/deleted-faucets", r.URL.Path)
			w.Write([]byte(`{"deletedAddresses":["0xABCD000000000000000000000000000000000001","0xef00000000000000000000000000000000000002"]}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, 0, 0)
		deleted := client.DeletedFaucets(context.Background())

		require.Len(t, deleted, 2)
		assert.Contains(t, deleted, "0xabcd000000000000000000000000000000000001")
		assert.Contains(t, deleted, "0xef00000000000000000000000000000000000002")
	})

	t.Run("non-2xx yields empty set", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		deleted := NewClient(server.URL, 0, 0).DeletedFaucets(context.Background())
		assert.Empty(t, deleted)
	})

	t.Run("malformed body yields empty set", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{not json`))
		}))
		defer server.Close()

		deleted := NewClient(server.URL, 0, 0).DeletedFaucets(context.Background())
		assert.Empty(t, deleted)
	})

	t.Run("unreachable backend yields empty set", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		deleted := NewClient(server.URL, 0, 0).DeletedFaucets(context.Background())
		assert.Empty(t, deleted)
	})
}

func TestMetadata(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Lookups always use the lowercased address.
			assert.Equal(t, "/faucet-metadata/0xabcd000000000000000000000000000000000001", r.URL.Path)
			w.Write([]byte(`{"imageUrl":"https://img.example/a.png","description":"Alpha"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, 0, 0)
		imageURL, description, ok := client.Metadata(context.Background(), "0xABCD000000000000000000000000000000000001")

		assert.True(t, ok)
		assert.Equal(t, "https://img.example/a.png", imageURL)
		assert.Equal(t, "Alpha", description)
	})

	t.Run("not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, _, ok := NewClient(server.URL, 0, 0).Metadata(context.Background(), "0xabc")
		assert.False(t, ok)
	})
}

func TestEnrich(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/faucet-metadata/0xaaa" {
			w.Write([]byte(`{"imageUrl":"https://img.example/aaa.png","description":"enriched"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	rows := []*models.FaucetDetail{
		{FaucetAddress: "0xaaa"},
		{FaucetAddress: "0xbbb", ImageURL: "existing", Description: "kept"},
	}

	NewClient(server.URL, 0, 0).Enrich(context.Background(), rows)

	assert.Equal(t, "https://img.example/aaa.png", rows[0].ImageURL)
	assert.Equal(t, "enriched", rows[0].Description)

	// A failed lookup leaves the row untouched.
	assert.Equal(t, "existing", rows[1].ImageURL)
	assert.Equal(t, "kept", rows[1].Description)
}

package tcgdex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListSets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sets", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":"base1","name":"Base Set"},{"id":"base2","name":"Jungle"}]`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	sets, err := client.ListSets(context.Background())
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, "base1", sets[0].ID)
	assert.Equal(t, "Jungle", sets[1].Name)
}

func TestGetSet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sets/base1", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id": "base1",
			"name": "Base Set",
			"releaseDate": "1999-01-09",
			"cards": [
				{"id": "base1-58", "localId": "58", "name": "Pikachu", "image": "https://assets.tcgdex.net/en/base/base1/58"}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	set, err := client.GetSet(context.Background(), "base1")
	require.NoError(t, err)

	assert.Equal(t, 1999, set.ReleaseYear())
	require.Len(t, set.Cards, 1)
	assert.Equal(t, "https://assets.tcgdex.net/en/base/base1/58/high.png", set.Cards[0].ImageURL())
}

func TestGetSetNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.GetSet(context.Background(), "nope")
	require.Error(t, err)
}

func TestReleaseYearMalformedDate(t *testing.T) {
	assert.Equal(t, 0, Set{ReleaseDate: ""}.ReleaseYear())
	assert.Equal(t, 0, Set{ReleaseDate: "1999"}.ReleaseYear())
}

func TestImageURLEmpty(t *testing.T) {
	assert.Equal(t, "", Card{}.ImageURL())
}

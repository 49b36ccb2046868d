package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"reconova-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "nature", r.URL.Query().Get("q"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "20", r.URL.Query().Get("per_page"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"total": 120,
			"totalHits": 100,
			"hits": [
				{
					"id": 555,
					"tags": "forest, river",
					"user": "naturelover",
					"previewURL": "https://cdn.example.com/preview.jpg",
					"videos": {
						"tiny":   {"url": "https://cdn.example.com/tiny.mp4", "width": 640, "height": 360, "size": 100000},
						"medium": {"url": "https://cdn.example.com/medium.mp4", "width": 1920, "height": 1080, "size": 900000}
					}
				}
			]
		}`))
	}))
	defer server.Close()

	client := NewPixabayClient(&config.PixabayConfig{APIKey: "test-key", BaseURL: server.URL})

	page, err := client.FetchPage(context.Background(), "nature", 2, 20)
	require.NoError(t, err)
	assert.Equal(t, 120, page.Total)
	assert.Equal(t, 100, page.TotalHits)
	require.Len(t, page.Hits, 1)

	hit := page.Hits[0]
	assert.Equal(t, int64(555), hit.ID)
	assert.Equal(t, "forest, river", hit.Tags)
	assert.Equal(t, "naturelover", hit.User)
	assert.Equal(t, "https://cdn.example.com/tiny.mp4", hit.Videos["tiny"].URL)
}

func TestFetchPageMissingAPIKey(t *testing.T) {
	client := NewPixabayClient(&config.PixabayConfig{})

	_, err := client.FetchPage(context.Background(), "nature", 1, 20)
	assert.Error(t, err)
}

func TestFetchPageNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewPixabayClient(&config.PixabayConfig{APIKey: "test-key", BaseURL: server.URL})

	_, err := client.FetchPage(context.Background(), "nature", 1, 20)
	assert.Error(t, err)
}

func TestChooseRendition(t *testing.T) {
	videos := map[string]Rendition{
		"large":  {URL: "https://cdn.example.com/large.mp4"},
		"medium": {URL: "https://cdn.example.com/medium.mp4"},
		"tiny":   {URL: "https://cdn.example.com/tiny.mp4"},
	}

	url, err := ChooseRendition(videos)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/tiny.mp4", url)

	// tiny 缺失或没有地址时顺延到下一档
	delete(videos, "tiny")
	url, err = ChooseRendition(videos)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/medium.mp4", url)

	videos["medium"] = Rendition{}
	url, err = ChooseRendition(videos)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/large.mp4", url)
}

func TestChooseRenditionNoUsableURL(t *testing.T) {
	_, err := ChooseRendition(map[string]Rendition{})
	assert.Error(t, err)

	_, err = ChooseRendition(map[string]Rendition{"tiny": {}})
	assert.Error(t, err)
}

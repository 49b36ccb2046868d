package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"reconova-go/internal/config"
)

// 渲染版本的优先级：够播即可，优先最小的
var renditionOrder = []string{"tiny", "small", "medium", "large"}

// Rendition Pixabay 返回的单个视频渲染版本
type Rendition struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   int64  `json:"size"`
}

// Hit Pixabay 搜索结果中的一条视频
type Hit struct {
	ID         int64                `json:"id"`
	Tags       string               `json:"tags"`
	User       string               `json:"user"`
	PreviewURL string               `json:"previewURL"`
	Videos     map[string]Rendition `json:"videos"`
}

// Page Pixabay 搜索结果的一页
type Page struct {
	Total     int   `json:"total"`
	TotalHits int   `json:"totalHits"`
	Hits      []Hit `json:"hits"`
}

// PixabayClient Pixabay 视频 API 客户端
type PixabayClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewPixabayClient(cfg *config.PixabayConfig) *PixabayClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://pixabay.com/api/videos/"
	}
	return &PixabayClient{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchPage 拉取一页搜索结果
func (c *PixabayClient) FetchPage(ctx context.Context, query string, page, perPage int) (*Page, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("pixabay api key is empty, set PIXABAY_API_KEY")
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("safesearch", "true")
	params.Set("video_type", "all")
	params.Set("lang", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build pixabay request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch pixabay page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pixabay returned status %d for page %d", resp.StatusCode, page)
	}

	var result Page
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode pixabay response: %w", err)
	}

	return &result, nil
}

// ChooseRendition 按 tiny→small→medium→large 的顺序选第一个可用的播放地址
func ChooseRendition(videos map[string]Rendition) (string, error) {
	for _, key := range renditionOrder {
		if r, ok := videos[key]; ok && r.URL != "" {
			return r.URL, nil
		}
	}
	return "", fmt.Errorf("no usable video url in pixabay response")
}

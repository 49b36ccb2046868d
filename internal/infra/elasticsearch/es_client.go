package elasticsearch

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"reconova-go/internal/config"
	"reconova-go/pkg/logger"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

var client *elasticsearch.Client

// videoIndexMapping 视频目录索引的 mapping
const videoIndexMapping = `{
  "mappings": {
    "properties": {
      "video_id":    {"type": "long"},
      "pixabay_id":  {"type": "long"},
      "title":       {"type": "text"},
      "description": {"type": "text"},
      "uploaded_at": {"type": "date"}
    }
  }
}`

// Init 初始化 Elasticsearch 客户端
func Init(cfg *config.ElasticsearchConfig) error {
	hosts := make([]string, 0, len(cfg.Hosts))
	for _, h := range cfg.Hosts {
		h = strings.TrimSpace(h)
		if h != "" && !strings.HasPrefix(h, "http") {
			h = "http://" + h
		}
		hosts = append(hosts, h)
	}

	if len(hosts) == 0 {
		return fmt.Errorf("elasticsearch hosts is empty")
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     hosts,
		RetryOnStatus: []int{502, 503, 504},
		MaxRetries:    3,
		RetryBackoff:  func(i int) time.Duration { return time.Duration(i) * time.Second },
	})
	if err != nil {
		return fmt.Errorf("create elasticsearch client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := es.Ping(es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to ping elasticsearch: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("elasticsearch ping failed: %s", resp.String())
	}

	client = es
	logger.Info("Elasticsearch connected", zap.Strings("hosts", hosts))
	return nil
}

// InitVideoIndex 确保视频索引存在
func InitVideoIndex(index string) error {
	if client == nil {
		return fmt.Errorf("elasticsearch client not initialized")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := client.Indices.Exists([]string{index}, client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", index, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == 200 {
		return nil
	}

	createResp, err := client.Indices.Create(
		index,
		client.Indices.Create.WithContext(ctx),
		client.Indices.Create.WithBody(strings.NewReader(videoIndexMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer createResp.Body.Close()
	if createResp.IsError() {
		return fmt.Errorf("create index %s failed: %s", index, createResp.String())
	}

	logger.Info("Elasticsearch video index created", zap.String("index", index))
	return nil
}

// Get 获取 ES 客户端
func Get() *elasticsearch.Client {
	return client
}

// Ready ES 是否可用（初始化失败时搜索降级到 DB）
func Ready() bool {
	return client != nil
}

// Search 执行搜索（body 为 JSON 字符串）
func Search(ctx context.Context, index string, body io.Reader) (*esapi.Response, error) {
	if client == nil {
		return nil, fmt.Errorf("elasticsearch client not initialized")
	}
	return client.Search(
		client.Search.WithContext(ctx),
		client.Search.WithIndex(index),
		client.Search.WithBody(body),
	)
}

// Index 索引文档
func Index(ctx context.Context, index, id string, body io.Reader) (*esapi.Response, error) {
	if client == nil {
		return nil, fmt.Errorf("elasticsearch client not initialized")
	}
	return client.Index(
		index,
		body,
		client.Index.WithContext(ctx),
		client.Index.WithDocumentID(id),
	)
}

// Delete 删除文档
func Delete(ctx context.Context, index, id string) (*esapi.Response, error) {
	if client == nil {
		return nil, fmt.Errorf("elasticsearch client not initialized")
	}
	return client.Delete(
		index,
		id,
		client.Delete.WithContext(ctx),
	)
}

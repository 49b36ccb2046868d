package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	infraES "reconova-go/internal/infra/elasticsearch"
	"reconova-go/internal/model"
)

// ESVideoIndexer 基于 Elasticsearch 的视频目录索引，实现 VideoIndexer
type ESVideoIndexer struct {
	index string
}

func NewESVideoIndexer(index string) *ESVideoIndexer {
	return &ESVideoIndexer{index: index}
}

type videoDoc struct {
	VideoID     int64     `json:"video_id"`
	PixabayID   int64     `json:"pixabay_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Index 写入/覆盖视频文档，文档 ID 即视频 ID
func (e *ESVideoIndexer) Index(video *model.Video) error {
	doc := videoDoc{
		VideoID:    video.ID,
		PixabayID:  video.PixabayID,
		Title:      video.Title,
		UploadedAt: video.UploadedAt,
	}
	if video.Description != nil {
		doc.Description = *video.Description
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal video doc: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := infraES.Index(ctx, e.index, strconv.FormatInt(video.ID, 10), strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return fmt.Errorf("index video %d: %s", video.ID, resp.String())
	}
	return nil
}

// Delete 删除视频文档
func (e *ESVideoIndexer) Delete(videoID int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := infraES.Delete(ctx, e.index, strconv.FormatInt(videoID, 10))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	// 404 说明文档本来就不在索引里，不算失败
	if resp.IsError() && resp.StatusCode != 404 {
		return fmt.Errorf("delete video doc %d: %s", videoID, resp.String())
	}
	return nil
}

// Search 全文搜索标题与描述，返回按相关度排序的视频 ID
func (e *ESVideoIndexer) Search(keyword string, skip, limit int) ([]int64, int64, error) {
	query := map[string]interface{}{
		"from": skip,
		"size": limit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  keyword,
				"fields": []string{"title^2", "description"},
			},
		},
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal search query: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := infraES.Search(ctx, e.index, strings.NewReader(string(body)))
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, 0, fmt.Errorf("search videos: %s", resp.String())
	}

	var result struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, 0, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]int64, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		id, perr := strconv.ParseInt(hit.ID, 10, 64)
		if perr != nil {
			continue
		}
		ids = append(ids, id)
	}

	return ids, result.Hits.Total.Value, nil
}

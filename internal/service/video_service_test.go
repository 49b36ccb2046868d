package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"reconova-go/internal/api/dto"
	infraKafka "reconova-go/internal/infra/kafka"
	"reconova-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeVideoStore struct {
	nextID int64
	rows   []model.Video

	// beforeCreate 模拟并发采集器在 Create 前抢先写入同一 pixabay_id
	beforeCreate func(s *fakeVideoStore)
}

func (s *fakeVideoStore) insert(video model.Video) model.Video {
	s.nextID++
	video.ID = s.nextID
	if video.UploadedAt.IsZero() {
		video.UploadedAt = time.Now()
	}
	s.rows = append(s.rows, video)
	return video
}

func (s *fakeVideoStore) GetByID(id int64) (*model.Video, error) {
	for i := range s.rows {
		if s.rows[i].ID == id {
			row := s.rows[i]
			return &row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeVideoStore) GetByPixabayID(pixabayID int64) (*model.Video, error) {
	for i := range s.rows {
		if s.rows[i].PixabayID == pixabayID {
			row := s.rows[i]
			return &row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeVideoStore) Create(video *model.Video) error {
	if s.beforeCreate != nil {
		s.beforeCreate(s)
	}
	for i := range s.rows {
		if s.rows[i].PixabayID == video.PixabayID {
			return gorm.ErrDuplicatedKey
		}
	}
	*video = s.insert(*video)
	return nil
}

func (s *fakeVideoStore) Update(id int64, updates map[string]interface{}) (*model.Video, error) {
	for i := range s.rows {
		if s.rows[i].ID != id {
			continue
		}
		row := &s.rows[i]
		if v, ok := updates["title"].(string); ok {
			row.Title = v
		}
		if v, ok := updates["description"].(*string); ok {
			row.Description = v
		}
		if v, ok := updates["source_url"].(string); ok {
			row.SourceURL = v
		}
		if v, ok := updates["thumb_url"].(*string); ok {
			row.ThumbURL = v
		}
		copied := *row
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeVideoStore) Delete(id int64) (bool, error) {
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeVideoStore) List(skip, limit int) ([]model.Video, int64, error) {
	total := int64(len(s.rows))
	if skip >= len(s.rows) {
		return nil, total, nil
	}
	rows := s.rows[skip:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows, total, nil
}

func (s *fakeVideoStore) SearchByKeyword(keyword string, skip, limit int) ([]model.Video, int64, error) {
	var matched []model.Video
	for _, r := range s.rows {
		if containsFold(r.Title, keyword) {
			matched = append(matched, r)
		}
	}
	return matched, int64(len(matched)), nil
}

func (s *fakeVideoStore) GetByIDs(ids []int64) ([]model.Video, error) {
	var matched []model.Video
	for _, r := range s.rows {
		for _, id := range ids {
			if r.ID == id {
				matched = append(matched, r)
				break
			}
		}
	}
	return matched, nil
}

func containsFold(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		match := true
		for j := 0; j < len(sub); j++ {
			a, b := s[i+j], sub[j]
			if 'A' <= a && a <= 'Z' {
				a += 'a' - 'A'
			}
			if 'A' <= b && b <= 'Z' {
				b += 'a' - 'A'
			}
			if a != b {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

type fakeIndexer struct {
	indexed   []int64
	deleted   []int64
	searchIDs []int64
	searchErr error
}

func (f *fakeIndexer) Index(video *model.Video) error {
	f.indexed = append(f.indexed, video.ID)
	return nil
}

func (f *fakeIndexer) Delete(videoID int64) error {
	f.deleted = append(f.deleted, videoID)
	return nil
}

func (f *fakeIndexer) Search(keyword string, skip, limit int) ([]int64, int64, error) {
	if f.searchErr != nil {
		return nil, 0, f.searchErr
	}
	return f.searchIDs, int64(len(f.searchIDs)), nil
}

func upsertReq(pixabayID int64, title string) *dto.VideoUpsertRequest {
	return &dto.VideoUpsertRequest{
		PixabayID: pixabayID,
		Title:     title,
		SourceURL: "https://cdn.example.com/clip.mp4",
	}
}

func TestUpsertCreates(t *testing.T) {
	store := &fakeVideoStore{}
	indexer := &fakeIndexer{}
	svc := NewVideoService(store, indexer, nil)

	info, created, err := svc.Upsert(upsertReq(555, "Sunset"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(555), info.PixabayID)
	assert.Equal(t, "Sunset", info.Title)
	assert.Equal(t, []int64{info.ID}, indexer.indexed)
}

func TestUpsertUpdatesExisting(t *testing.T) {
	store := &fakeVideoStore{}
	svc := NewVideoService(store, nil, nil)

	first, created, err := svc.Upsert(upsertReq(555, "Sunset"))
	require.NoError(t, err)
	require.True(t, created)

	// 同一 pixabay_id 重复采集只更新元数据
	second, created, err := svc.Upsert(upsertReq(555, "Sunset at the beach"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Sunset at the beach", second.Title)
	assert.Len(t, store.rows, 1)
}

// 存在性检查和插入之间被并发采集器插队：唯一冲突转为更新
func TestUpsertUniqueViolationRecovery(t *testing.T) {
	store := &fakeVideoStore{}
	svc := NewVideoService(store, nil, nil)

	store.beforeCreate = func(s *fakeVideoStore) {
		s.beforeCreate = nil
		s.insert(model.Video{PixabayID: 555, Title: "Racer", SourceURL: "https://cdn.example.com/racer.mp4"})
	}

	info, created, err := svc.Upsert(upsertReq(555, "Sunset"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Sunset", info.Title)
	assert.Len(t, store.rows, 1)
}

func TestGetByIDNotFound(t *testing.T) {
	svc := NewVideoService(&fakeVideoStore{}, nil, nil)

	_, err := svc.GetByID(404)
	assert.ErrorIs(t, err, ErrVideoNotFound)
}

func TestDeleteNotFound(t *testing.T) {
	svc := NewVideoService(&fakeVideoStore{}, nil, nil)

	err := svc.Delete(404)
	assert.ErrorIs(t, err, ErrVideoNotFound)
}

func TestDeletePublishesCleanupEvent(t *testing.T) {
	store := &fakeVideoStore{}
	indexer := &fakeIndexer{}

	var published []*infraKafka.VideoDeletedEvent
	publish := func(ctx context.Context, event *infraKafka.VideoDeletedEvent) error {
		published = append(published, event)
		return nil
	}

	svc := NewVideoService(store, indexer, publish)

	info, _, err := svc.Upsert(upsertReq(555, "Sunset"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(info.ID))
	assert.Empty(t, store.rows)
	assert.Equal(t, []int64{info.ID}, indexer.deleted)

	require.Len(t, published, 1)
	assert.Equal(t, info.ID, published[0].VideoID)
	assert.Equal(t, int64(555), published[0].PixabayID)
	assert.Equal(t, "555.mp4", published[0].ClipObject)
	assert.Equal(t, "555.jpg", published[0].ThumbObject)
}

// 清理事件发布失败不应阻塞删除本身
func TestDeleteIgnoresPublishFailure(t *testing.T) {
	store := &fakeVideoStore{}
	publish := func(ctx context.Context, event *infraKafka.VideoDeletedEvent) error {
		return errors.New("broker down")
	}
	svc := NewVideoService(store, nil, publish)

	info, _, err := svc.Upsert(upsertReq(555, "Sunset"))
	require.NoError(t, err)

	assert.NoError(t, svc.Delete(info.ID))
	assert.Empty(t, store.rows)
}

func TestSearchOrdersByIndexRelevance(t *testing.T) {
	store := &fakeVideoStore{}
	svc := NewVideoService(store, nil, nil)

	a, _, err := svc.Upsert(upsertReq(1, "Mountain lake"))
	require.NoError(t, err)
	b, _, err := svc.Upsert(upsertReq(2, "Lake sunrise"))
	require.NoError(t, err)

	// ES 认为 b 更相关，结果顺序要跟随索引而不是表序
	indexer := &fakeIndexer{searchIDs: []int64{b.ID, a.ID}}
	svc = NewVideoService(store, indexer, nil)

	data, err := svc.Search("lake", 0, 20)
	require.NoError(t, err)
	require.Len(t, data.Videos, 2)
	assert.Equal(t, b.ID, data.Videos[0].ID)
	assert.Equal(t, a.ID, data.Videos[1].ID)
}

func TestSearchFallsBackToDB(t *testing.T) {
	store := &fakeVideoStore{}
	svc := NewVideoService(store, nil, nil)

	_, _, err := svc.Upsert(upsertReq(1, "Mountain lake"))
	require.NoError(t, err)
	_, _, err = svc.Upsert(upsertReq(2, "City traffic"))
	require.NoError(t, err)

	indexer := &fakeIndexer{searchErr: errors.New("es unavailable")}
	svc = NewVideoService(store, indexer, nil)

	data, err := svc.Search("lake", 0, 20)
	require.NoError(t, err)
	require.Len(t, data.Videos, 1)
	assert.Equal(t, "Mountain lake", data.Videos[0].Title)
}

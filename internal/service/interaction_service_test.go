package service

import (
	"sort"
	"sync"
	"testing"
	"time"

	"reconova-go/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeInteractionStore 内存版互动存储，和真实仓储一样
// 对 (user_id, video_id, action) 三元组强制唯一。
type fakeInteractionStore struct {
	mu     sync.Mutex
	nextID int64
	rows   []model.Interaction

	// beforeCreate 在 Create 拿到锁之后、查重之前执行，
	// 用来模拟并发写者抢先插入
	beforeCreate func(s *fakeInteractionStore)
}

func (s *fakeInteractionStore) insertLocked(inter model.Interaction) model.Interaction {
	s.nextID++
	inter.ID = s.nextID
	s.rows = append(s.rows, inter)
	return inter
}

func (s *fakeInteractionStore) findLocked(userID, videoID int64, action model.ActionKind) *model.Interaction {
	for i := range s.rows {
		r := &s.rows[i]
		if r.UserID == userID && r.VideoID == videoID && r.Action == action {
			return r
		}
	}
	return nil
}

func (s *fakeInteractionStore) GetByTriple(userID, videoID int64, action model.ActionKind) (*model.Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r := s.findLocked(userID, videoID, action); r != nil {
		row := *r
		return &row, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeInteractionStore) Create(inter *model.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.beforeCreate != nil {
		s.beforeCreate(s)
	}

	if s.findLocked(inter.UserID, inter.VideoID, inter.Action) != nil {
		return &pgconn.PgError{Code: "23505", ConstraintName: "uq_user_video_action"}
	}

	*inter = s.insertLocked(*inter)
	return nil
}

func (s *fakeInteractionStore) ListByUser(userID int64, action *model.ActionKind, skip, limit int) ([]model.Interaction, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []model.Interaction
	for _, r := range s.rows {
		if r.UserID != userID {
			continue
		}
		if action != nil && r.Action != *action {
			continue
		}
		matched = append(matched, r)
	}

	sortInteractions(matched)
	total := int64(len(matched))
	return paginate(matched, skip, limit), total, nil
}

func (s *fakeInteractionStore) ListByVideo(videoID int64, action *model.ActionKind, limit int) ([]model.Interaction, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []model.Interaction
	for _, r := range s.rows {
		if r.VideoID != videoID {
			continue
		}
		if action != nil && r.Action != *action {
			continue
		}
		matched = append(matched, r)
	}

	sortInteractions(matched)
	total := int64(len(matched))
	return paginate(matched, 0, limit), total, nil
}

func (s *fakeInteractionStore) CountByVideo(videoID int64, action model.ActionKind) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, r := range s.rows {
		if r.VideoID == videoID && r.Action == action {
			count++
		}
	}
	return count, nil
}

// 时间倒序，同一时刻按 ID 升序，和仓储的 ORDER BY 一致
func sortInteractions(rows []model.Interaction) {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Timestamp.Equal(rows[j].Timestamp) {
			return rows[i].Timestamp.After(rows[j].Timestamp)
		}
		return rows[i].ID < rows[j].ID
	})
}

func paginate(rows []model.Interaction, skip, limit int) []model.Interaction {
	if skip >= len(rows) {
		return nil
	}
	rows = rows[skip:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

type fakeVideoFinder struct {
	ids map[int64]bool
}

func (f *fakeVideoFinder) GetByID(id int64) (*model.Video, error) {
	if f.ids[id] {
		return &model.Video{ID: id}, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func newInteractionFixture(videoIDs ...int64) (*InteractionService, *fakeInteractionStore) {
	store := &fakeInteractionStore{}
	finder := &fakeVideoFinder{ids: map[int64]bool{}}
	for _, id := range videoIDs {
		finder.ids[id] = true
	}
	return NewInteractionService(store, finder, nil), store
}

func TestRecordInvalidAction(t *testing.T) {
	svc, store := newInteractionFixture(1)

	_, _, err := svc.Record(1, 1, "watch", nil)
	assert.ErrorIs(t, err, ErrInvalidAction)
	assert.Empty(t, store.rows)
}

func TestRecordMissingVideo(t *testing.T) {
	svc, store := newInteractionFixture(1)

	_, _, err := svc.Record(1, 404, model.ActionLike, nil)
	assert.ErrorIs(t, err, ErrVideoNotFound)
	assert.Empty(t, store.rows)
}

func TestRecordIdempotent(t *testing.T) {
	svc, store := newInteractionFixture(10)

	first, isNew, err := svc.Record(1, 10, model.ActionLike, nil)
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, int64(1), first.UserID)
	assert.Equal(t, int64(10), first.VideoID)
	assert.Equal(t, "like", first.Action)
	assert.False(t, first.Timestamp.IsZero())

	// 重复提交返回已有行，不产生第二条
	second, isNew, err := svc.Record(1, 10, model.ActionLike, nil)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.Timestamp.Equal(second.Timestamp))
	assert.Len(t, store.rows, 1)
}

func TestRecordDistinctActionsSeparateRows(t *testing.T) {
	svc, store := newInteractionFixture(10)

	_, isNew, err := svc.Record(1, 10, model.ActionLike, nil)
	require.NoError(t, err)
	assert.True(t, isNew)

	_, isNew, err = svc.Record(1, 10, model.ActionView, nil)
	require.NoError(t, err)
	assert.True(t, isNew)

	_, isNew, err = svc.Record(2, 10, model.ActionLike, nil)
	require.NoError(t, err)
	assert.True(t, isNew)

	assert.Len(t, store.rows, 3)
}

func TestRecordSuppliedTimestamp(t *testing.T) {
	svc, _ := newInteractionFixture(10)

	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	info, isNew, err := svc.Record(1, 10, model.ActionBookmark, &at)
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.True(t, at.Equal(info.Timestamp))
}

// 先查后插之间被并发写者插队：插入吃到唯一冲突后改查已有行，
// 调用方拿到的是赢家那一行，且不报错。
func TestRecordUniqueViolationRecovery(t *testing.T) {
	svc, store := newInteractionFixture(10)

	racerTS := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store.beforeCreate = func(s *fakeInteractionStore) {
		s.beforeCreate = nil
		s.insertLocked(model.Interaction{
			UserID: 1, VideoID: 10, Action: model.ActionShare, Timestamp: racerTS,
		})
	}

	info, isNew, err := svc.Record(1, 10, model.ActionShare, nil)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.True(t, racerTS.Equal(info.Timestamp))
	assert.Len(t, store.rows, 1)
}

func TestRecordConcurrent(t *testing.T) {
	svc, store := newInteractionFixture(10)

	const writers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		ids     = map[int64]bool{}
	)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			info, isNew, err := svc.Record(1, 10, model.ActionComplete, nil)
			if !assert.NoError(t, err) {
				return
			}

			mu.Lock()
			defer mu.Unlock()
			if isNew {
				created++
			}
			ids[info.ID] = true
		}()
	}
	wg.Wait()

	// 恰好一个写者新建，其余全部收敛到同一行
	assert.Equal(t, 1, created)
	assert.Len(t, ids, 1)
	assert.Len(t, store.rows, 1)
}

func TestListByUserOrderingAndFilter(t *testing.T) {
	svc, store := newInteractionFixture(10, 11)

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	seed := []struct {
		videoID int64
		action  model.ActionKind
		offset  time.Duration
	}{
		{10, model.ActionView, 0},
		{11, model.ActionLike, time.Minute},
		{10, model.ActionLike, 2 * time.Minute},
	}
	for _, s := range seed {
		at := base.Add(s.offset)
		_, _, err := svc.Record(1, s.videoID, s.action, &at)
		require.NoError(t, err)
	}
	// 其他用户的记录不应混入
	store.insertLocked(model.Interaction{UserID: 2, VideoID: 10, Action: model.ActionView, Timestamp: base})

	data, err := svc.ListByUser(1, nil, 0, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(3), data.Total)
	require.Len(t, data.Interactions, 3)
	// 时间倒序
	assert.Equal(t, int64(10), data.Interactions[0].VideoID)
	assert.Equal(t, "like", data.Interactions[0].Action)
	assert.Equal(t, int64(11), data.Interactions[1].VideoID)
	assert.Equal(t, "view", data.Interactions[2].Action)

	like := model.ActionLike
	data, err = svc.ListByUser(1, &like, 0, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(2), data.Total)
	for _, item := range data.Interactions {
		assert.Equal(t, "like", item.Action)
	}
}

func TestListByUserPagination(t *testing.T) {
	svc, _ := newInteractionFixture(1, 2, 3, 4, 5)

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for v := int64(1); v <= 5; v++ {
		at := base.Add(time.Duration(v) * time.Minute)
		_, _, err := svc.Record(1, v, model.ActionView, &at)
		require.NoError(t, err)
	}

	data, err := svc.ListByUser(1, nil, 2, 2)
	require.NoError(t, err)
	// total 始终是过滤后的全量，不受分页影响
	assert.Equal(t, int64(5), data.Total)
	require.Len(t, data.Interactions, 2)
	assert.Equal(t, int64(3), data.Interactions[0].VideoID)
	assert.Equal(t, int64(2), data.Interactions[1].VideoID)
	assert.Equal(t, 2, data.Skip)
	assert.Equal(t, 2, data.Limit)
}

func TestListByUserInvalidFilter(t *testing.T) {
	svc, _ := newInteractionFixture()

	bad := model.ActionKind("watch")
	_, err := svc.ListByUser(1, &bad, 0, 50)
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestGetStatus(t *testing.T) {
	svc, _ := newInteractionFixture(10)

	recorded, err := svc.GetStatus(1, 10, model.ActionLike)
	require.NoError(t, err)
	assert.False(t, recorded)

	_, _, err = svc.Record(1, 10, model.ActionLike, nil)
	require.NoError(t, err)

	recorded, err = svc.GetStatus(1, 10, model.ActionLike)
	require.NoError(t, err)
	assert.True(t, recorded)

	// 同一视频的其他行为互不影响
	recorded, err = svc.GetStatus(1, 10, model.ActionBookmark)
	require.NoError(t, err)
	assert.False(t, recorded)
}

func TestCountByVideo(t *testing.T) {
	svc, _ := newInteractionFixture(10)

	for userID := int64(1); userID <= 3; userID++ {
		_, _, err := svc.Record(userID, 10, model.ActionLike, nil)
		require.NoError(t, err)
	}
	_, _, err := svc.Record(1, 10, model.ActionView, nil)
	require.NoError(t, err)

	count, err := svc.CountByVideo(10, model.ActionLike)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

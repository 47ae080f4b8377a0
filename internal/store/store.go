package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/dayflow/internal/dateutil"
	"github.com/dayflow/internal/db"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// DefaultCapacityBytes 与浏览器本地存储的常见配额保持一致。
	DefaultCapacityBytes int64 = 5 * 1024 * 1024
	// DefaultRetentionDays 是容量不足时保留的历史天数。
	DefaultRetentionDays = 90
)

// ErrQuotaExceeded 表示写入会超过配置的容量。
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Options 控制容量与保留期。
type Options struct {
	// CapacityBytes 为所有记录值的总字节上限，<=0 表示不限制。
	CapacityBytes int64
	// RetentionDays 为清理时保留的天数，<=0 时使用默认值。
	RetentionDays int
}

// Store 是所有组件共享的键值存储。
// 每次读取都直接访问介质，不缓存任何内容；写入失败不会向调用方抛出错误。
// 所有访问都在 mu 下串行执行，Update 的读-改-写不会与清理任务交错。
type Store struct {
	mu            sync.Mutex
	db            *gorm.DB
	clock         dateutil.Clock
	capacity      int64
	retentionDays int
}

type readResult int

const (
	readFound readResult = iota
	// readAbsent 表示记录不存在、为 null 或已损坏，可以安全覆盖
	readAbsent
	// readFailed 表示介质读取出错，此时覆盖写入会丢失数据
	readFailed
)

// Usage 描述当前占用情况。
type Usage struct {
	UsedBytes     int64
	CapacityBytes int64
	Keys          int64
}

// New 构造 Store。
func New(gdb *gorm.DB, clock dateutil.Clock, opts Options) *Store {
	retention := opts.RetentionDays
	if retention <= 0 {
		retention = DefaultRetentionDays
	}
	return &Store{db: gdb, clock: clock, capacity: opts.CapacityBytes, retentionDays: retention}
}

// Clock 返回存储使用的时钟，服务层共用同一个“今天”。
func (s *Store) Clock() dateutil.Clock {
	return s.clock
}

// Read 读取 key 并解码到 dst。记录不存在、为 null 或无法解析时返回 false。
func (s *Store) Read(key string, dst interface{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(key, dst) == readFound
}

// Write 序列化 value 并写入。遇到容量错误时清理过期的按日数据后重试一次，
// 重试仍失败则放弃本次写入；返回值仅表示是否成功落盘。
func (s *Store) Write(key string, value interface{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(key, value)
}

// Update 在同一把锁内读取 key 到 dst、调用 mutate 修改，再写回 dst。
// 记录缺失或损坏时 dst 为零值；介质读取出错时不调用 mutate，避免用空值覆盖已有数据。
// mutate 返回 false 表示无需写入。mutate 内不得再调用 Store 的读写方法。
func (s *Store) Update(key string, dst interface{}, mutate func() bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.read(key, dst) == readFailed {
		log.Printf("[store] skip update of %s: read failed", key)
		return false
	}
	if !mutate() {
		return false
	}
	return s.write(key, dst)
}

func (s *Store) read(key string, dst interface{}) readResult {
	var rec db.Record
	if err := s.db.Where("`key` = ?", key).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return readAbsent
		}
		log.Printf("[store] read %s: %v", key, err)
		return readFailed
	}

	raw := bytes.TrimSpace([]byte(rec.Value))
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return readAbsent
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		log.Printf("[store] discard corrupt value for %s: %v", key, err)
		resetValue(dst)
		return readAbsent
	}
	return readFound
}

func (s *Store) write(key string, value interface{}) bool {
	payload, err := json.Marshal(value)
	if err != nil {
		log.Printf("[store] encode %s: %v", key, err)
		return false
	}

	err = s.put(key, string(payload))
	if err == nil {
		return true
	}
	if !isCapacityError(err) {
		log.Printf("[store] write %s: %v", key, err)
		return false
	}

	log.Printf("[store] quota exceeded writing %s, pruning history older than %d days", key, s.retentionDays)
	s.prune(s.RetentionCutoff())

	if err := s.put(key, string(payload)); err != nil {
		log.Printf("[store] write %s failed even after pruning: %v", key, err)
		return false
	}
	return true
}

// RetentionCutoff 返回保留期的起始日期，早于它的按日数据会被清理。
func (s *Store) RetentionCutoff() string {
	return dateutil.AddDays(s.clock.Today(), -s.retentionDays)
}

// PruneExpired 按保留期清理历史与临时任务，返回删除的日期桶数量。
func (s *Store) PruneExpired() int {
	return s.Prune(s.RetentionCutoff())
}

// Prune 删除 history/adhoc 中日期键小于 cutoff 的条目。
// 规范日期零填充，直接比较字符串即可得到时间先后。
func (s *Store) Prune(cutoff string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prune(cutoff)
}

func (s *Store) prune(cutoff string) int {
	removed := 0
	for _, key := range db.DatedKeys {
		var buckets map[string]json.RawMessage
		if s.read(key, &buckets) != readFound {
			continue
		}

		stale := make([]string, 0)
		for date := range buckets {
			if date < cutoff {
				stale = append(stale, date)
			}
		}
		if len(stale) == 0 {
			continue
		}
		sort.Strings(stale)
		for _, date := range stale {
			delete(buckets, date)
		}

		payload, err := json.Marshal(buckets)
		if err != nil {
			continue
		}
		if err := s.put(key, string(payload)); err != nil {
			log.Printf("[store] prune %s: %v", key, err)
			continue
		}
		removed += len(stale)
	}
	if removed > 0 {
		log.Printf("[store] pruned %d dated entries before %s", removed, cutoff)
	}
	return removed
}

// Usage 返回当前占用的字节数与记录数。
func (s *Store) Usage() (Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	usage := Usage{CapacityBytes: s.capacity}
	var totals struct {
		Used int64
		Keys int64
	}
	if err := s.db.Model(&db.Record{}).
		Select("COALESCE(SUM(LENGTH(CAST(value AS BLOB))), 0) AS used, COUNT(*) AS keys").
		Scan(&totals).Error; err != nil {
		return usage, fmt.Errorf("store usage: %w", err)
	}
	usage.UsedBytes = totals.Used
	usage.Keys = totals.Keys
	return usage, nil
}

func (s *Store) put(key, payload string) error {
	if s.capacity > 0 {
		var others int64
		if err := s.db.Model(&db.Record{}).
			Where("`key` <> ?", key).
			Select("COALESCE(SUM(LENGTH(CAST(value AS BLOB))), 0)").
			Scan(&others).Error; err != nil {
			return err
		}
		if others+int64(len(payload)) > s.capacity {
			return fmt.Errorf("%w: %d bytes requested, %d of %d in use", ErrQuotaExceeded, len(payload), others, s.capacity)
		}
	}

	record := db.Record{Key: key, Value: payload, UpdatedAt: s.clock.Current()}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&record).Error
}

func isCapacityError(err error) bool {
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrFull {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "database or disk is full")
}

// resetValue 把部分解码的 dst 清回零值
func resetValue(dst interface{}) {
	v := reflect.ValueOf(dst)
	if v.Kind() == reflect.Ptr && !v.IsNil() {
		v.Elem().Set(reflect.Zero(v.Elem().Type()))
	}
}

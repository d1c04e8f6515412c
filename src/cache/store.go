// Package cache persists list snapshots locally so the Connect view can
// paint before the first round of live reads completes. Only raw profile
// rows are stored; derived flags are always recomputed from live data.
package cache

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	KeyCreators = "connect:creators"
	KeyMembers  = "connect:members"
)

type snapshot struct {
	Key       string `gorm:"primaryKey"`
	Payload   []byte
	UpdatedAt time.Time
}

// Store is a key/value snapshot table on local SQLite. Storage being
// unavailable is not an error condition: every operation degrades to a
// no-op and the caller falls back to live data.
type Store struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

// Open returns a usable Store even when the database cannot be opened.
func Open(path string, log *zap.SugaredLogger) *Store {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Debugf("Local cache unavailable at %s: %v", path, err)
		return &Store{log: log}
	}
	if err := db.AutoMigrate(&snapshot{}); err != nil {
		log.Debugf("Local cache migration failed: %v", err)
		return &Store{log: log}
	}
	return &Store{db: db, log: log}
}

// Get loads a snapshot into out and reports whether one was found.
func (s *Store) Get(key string, out any) bool {
	if s.db == nil {
		return false
	}
	var row snapshot
	if err := s.db.First(&row, "key = ?", key).Error; err != nil {
		return false
	}
	if err := json.Unmarshal(row.Payload, out); err != nil {
		s.log.Debugf("Error decoding cache snapshot %s: %v", key, err)
		return false
	}
	return true
}

func (s *Store) Put(key string, v any) {
	if s.db == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		s.log.Debugf("Error encoding cache snapshot %s: %v", key, err)
		return
	}
	row := snapshot{Key: key, Payload: payload, UpdatedAt: time.Now()}
	if err := s.db.Save(&row).Error; err != nil {
		s.log.Debugf("Error writing cache snapshot %s: %v", key, err)
	}
}

// Close releases the underlying database handle.
func (s *Store) Close() {
	if s.db == nil {
		return
	}
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (s *Store) Invalidate(key string) {
	if s.db == nil {
		return
	}
	if err := s.db.Delete(&snapshot{}, "key = ?", key).Error; err != nil {
		s.log.Debugf("Error invalidating cache snapshot %s: %v", key, err)
	}
}

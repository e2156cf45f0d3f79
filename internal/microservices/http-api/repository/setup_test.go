package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mangareader/database"
	"mangareader/internal/microservices/http-api/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func seedManga(t *testing.T, db *gorm.DB, title, author string, offset time.Duration) models.Manga {
	t.Helper()
	m := models.Manga{
		Title:     title,
		Author:    author,
		Status:    models.StatusOngoing,
		Type:      models.TypeManga,
		CreatedAt: baseTime.Add(offset),
	}
	require.NoError(t, db.Create(&m).Error)
	return m
}

func seedChapter(t *testing.T, db *gorm.DB, mangaID int64, number int) models.Chapter {
	t.Helper()
	ch := models.Chapter{MangaID: mangaID, Number: number, Title: "Chapter"}
	require.NoError(t, db.Create(&ch).Error)
	return ch
}

package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/huangang/modsentry/backend/internal/config"
	"github.com/huangang/modsentry/backend/internal/scoring"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open connects to the configured database without touching the package global
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

func InitDB(cfg *config.DatabaseConfig) error {
	db, err := Open(cfg)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// AllModels lists every table the service owns
func AllModels() []interface{} {
	return []interface{}{
		&Author{},
		&Content{},
		&ContentImage{},
		&ContentContext{},
		&Prediction{},
		&Review{},
		&SystemSettings{},
		&ModelVersion{},
		&BlockedWord{},
		&Moderator{},
		&SystemLog{},
		&SchedulerLock{},
	}
}

func AutoMigrate() error {
	return Migrate(DB)
}

// Migrate creates or updates all tables on db
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}

func GetDB() *gorm.DB {
	return DB
}

// SeedDefaultData creates default data if not exists
func SeedDefaultData() error {
	return Seed(DB)
}

// Seed creates the settings row, demo authors with sample content and the base wordlist
func Seed(db *gorm.DB) error {
	var settings SystemSettings
	err := db.First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = DefaultSystemSettings()
		if err := db.Create(&settings).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	var authorCount int64
	if err := db.Model(&Author{}).Count(&authorCount).Error; err != nil {
		return err
	}
	if authorCount == 0 {
		if err := seedAuthors(db); err != nil {
			return err
		}
	}

	var wordCount int64
	if err := db.Model(&BlockedWord{}).Count(&wordCount).Error; err != nil {
		return err
	}
	if wordCount == 0 {
		var words []BlockedWord
		for _, cat := range scoring.ScoredCategories {
			for _, w := range scoring.BaseKeywords(cat) {
				words = append(words, BlockedWord{Word: w, Category: cat, IsActive: true})
			}
		}
		if err := db.CreateInBatches(&words, 100).Error; err != nil {
			return err
		}
	}

	return nil
}

func seedAuthors(db *gorm.DB) error {
	now := time.Now()
	authors := []Author{
		{Username: "trusted_user", ReputationScore: 90, AccountAgeDays: 365, CreatedAt: now.AddDate(0, 0, -365)},
		{Username: "new_user", ReputationScore: 50, AccountAgeDays: 5, CreatedAt: now.AddDate(0, 0, -5)},
		{Username: "problematic_user", ReputationScore: 20, AccountAgeDays: 100, PreviousViolations: 3, CreatedAt: now.AddDate(0, 0, -100)},
	}
	if err := db.Create(&authors).Error; err != nil {
		return err
	}

	samples := []Content{
		{Type: ContentTypeComment, Text: "This is a great article! Thanks for sharing.", AuthorID: authors[0].ID},
		{Type: ContentTypePost, Text: "I really enjoyed reading this. Very informative and well written.", AuthorID: authors[0].ID},
		{Type: ContentTypeComment, Text: "This is spam spam spam buy now click here", AuthorID: authors[1].ID},
		{Type: ContentTypeMessage, Text: "You are an idiot and I hate you", AuthorID: authors[2].ID},
		{Type: ContentTypeComment, Text: "I disagree with your opinion but respect your right to have it.", AuthorID: authors[1].ID},
		{Type: ContentTypePost, Text: "Check out this amazing deal! Limited time offer!", AuthorID: authors[1].ID},
	}
	for i := range samples {
		samples[i].Status = ContentStatusQueued
		samples[i].CreatedAt = now.Add(time.Duration(i) * time.Millisecond)
	}
	return db.Create(&samples).Error
}

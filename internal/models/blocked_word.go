package models

import "time"

// BlockedWord is a wordlist entry. Category is free text (toxic, hate, spam, offensive, slur, ...).
type BlockedWord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Word      string    `gorm:"uniqueIndex:idx_word_category;size:200;not null" json:"word"`
	Category  string    `gorm:"uniqueIndex:idx_word_category;size:50;index;not null" json:"category"`
	IsActive  bool      `gorm:"index" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (BlockedWord) TableName() string { return "blocked_words" }

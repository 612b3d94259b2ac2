package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/huangang/modsentry/backend/internal/models"
	"github.com/huangang/modsentry/backend/internal/scoring"
	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

const (
	wordlistCacheKey = "active"
	wordlistCacheTTL = time.Minute
)

// WordlistService stores blocked words and serves the compiled lexicon snapshot.
// The snapshot is cached and dropped on every mutation made through this service.
type WordlistService struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewWordlistService(db *gorm.DB) *WordlistService {
	return &WordlistService{
		db:    db,
		cache: cache.New(wordlistCacheTTL, 2*wordlistCacheTTL),
	}
}

// GetActiveWordsByCategory returns the active words of one category
func (s *WordlistService) GetActiveWordsByCategory(ctx context.Context, category string) ([]string, error) {
	var words []string
	err := s.db.WithContext(ctx).Model(&models.BlockedWord{}).
		Where("category = ? AND is_active = ?", strings.ToLower(category), true).
		Order("word").
		Pluck("word", &words).Error
	if err != nil {
		return nil, fmt.Errorf("load words for %s: %w", category, err)
	}
	return words, nil
}

// ActiveWords returns every active word grouped by category
func (s *WordlistService) ActiveWords(ctx context.Context) (map[string][]string, error) {
	var rows []models.BlockedWord
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("category, word").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load active words: %w", err)
	}
	byCategory := make(map[string][]string)
	for _, w := range rows {
		byCategory[w.Category] = append(byCategory[w.Category], w.Word)
	}
	return byCategory, nil
}

// Lexicon returns the compiled keyword snapshot, built from the active words on a cache miss
func (s *WordlistService) Lexicon(ctx context.Context) (*scoring.Lexicon, error) {
	if v, ok := s.cache.Get(wordlistCacheKey); ok {
		return v.(*scoring.Lexicon), nil
	}
	active, err := s.ActiveWords(ctx)
	if err != nil {
		return nil, err
	}
	lex := scoring.NewLexicon(active)
	s.cache.Set(wordlistCacheKey, lex, cache.DefaultExpiration)
	return lex, nil
}

// Invalidate drops the cached snapshot
func (s *WordlistService) Invalidate() {
	s.cache.Delete(wordlistCacheKey)
}

// List returns all words, optionally of one category
func (s *WordlistService) List(ctx context.Context, category string) ([]models.BlockedWord, error) {
	var words []models.BlockedWord
	q := s.db.WithContext(ctx).Order("category, word")
	if category != "" {
		q = q.Where("category = ?", strings.ToLower(category))
	}
	if err := q.Find(&words).Error; err != nil {
		return nil, fmt.Errorf("list words: %w", err)
	}
	return words, nil
}

// Add stores a word. Adding an existing word of the same category re-activates it.
func (s *WordlistService) Add(ctx context.Context, word, category string) (*models.BlockedWord, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	category = strings.ToLower(strings.TrimSpace(category))
	if word == "" || category == "" {
		return nil, ErrEmptyWord
	}

	db := s.db.WithContext(ctx)
	var existing models.BlockedWord
	err := db.Where("word = ? AND category = ?", word, category).First(&existing).Error
	switch {
	case err == nil:
		if !existing.IsActive {
			if err := db.Model(&existing).Update("is_active", true).Error; err != nil {
				return nil, fmt.Errorf("reactivate word: %w", err)
			}
			existing.IsActive = true
			s.Invalidate()
		}
		return &existing, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("look up word: %w", err)
	}

	w := &models.BlockedWord{Word: word, Category: category, IsActive: true}
	if err := db.Create(w).Error; err != nil {
		return nil, fmt.Errorf("create word: %w", err)
	}
	s.Invalidate()
	return w, nil
}

// WordUpdate carries optional changes to a blocked word
type WordUpdate struct {
	Word     *string `json:"word"`
	Category *string `json:"category"`
	IsActive *bool   `json:"is_active"`
}

func (s *WordlistService) Update(ctx context.Context, id uint, upd WordUpdate) (*models.BlockedWord, error) {
	db := s.db.WithContext(ctx)
	var w models.BlockedWord
	if err := db.First(&w, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWordNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if upd.Word != nil {
		v := strings.ToLower(strings.TrimSpace(*upd.Word))
		if v == "" {
			return nil, ErrEmptyWord
		}
		updates["word"] = v
	}
	if upd.Category != nil {
		v := strings.ToLower(strings.TrimSpace(*upd.Category))
		if v == "" {
			return nil, ErrEmptyWord
		}
		updates["category"] = v
	}
	if upd.IsActive != nil {
		updates["is_active"] = *upd.IsActive
	}
	if len(updates) == 0 {
		return &w, nil
	}
	if err := db.Model(&w).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update word %d: %w", id, err)
	}
	s.Invalidate()
	if err := db.First(&w, id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *WordlistService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.BlockedWord{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete word %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrWordNotFound
	}
	s.Invalidate()
	return nil
}

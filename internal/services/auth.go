package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangang/modsentry/backend/internal/config"
	"github.com/huangang/modsentry/backend/internal/models"
	"github.com/huangang/modsentry/backend/internal/utils"
	"github.com/huangang/modsentry/backend/pkg/logger"
	"gorm.io/gorm"
)

type AuthService struct {
	db        *gorm.DB
	jwtConfig *config.JWTConfig
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig) *AuthService {
	return &AuthService{db: db, jwtConfig: jwtCfg}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string            `json:"token"`
	Moderator *models.Moderator `json:"moderator"`
	ExpireAt  time.Time         `json:"expire_at"`
}

// Login checks the moderator's password and issues a JWT
func (s *AuthService) Login(ctx context.Context, req *LoginRequest, clientIP string) (*LoginResponse, error) {
	db := s.db.WithContext(ctx)

	var mod models.Moderator
	if err := db.Where("username = ?", req.Username).First(&mod).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !mod.IsActive || !utils.CheckPassword(req.Password, mod.Password) {
		LogWarning("auth", "login_failed", "Failed login for "+req.Username, nil, clientIP, nil)
		return nil, ErrInvalidCredentials
	}

	hours := s.jwtConfig.ExpireHour
	if hours <= 0 {
		hours = 24
	}
	token, err := utils.GenerateToken(mod.ID, mod.Username, mod.Role, hours)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	now := time.Now()
	mod.LastLogin = &now
	if err := db.Model(&mod).Update("last_login", now).Error; err != nil {
		logger.Warnf("[Auth] Failed to stamp last login of %s: %v", mod.Username, err)
	}

	return &LoginResponse{
		Token:     token,
		Moderator: &mod,
		ExpireAt:  now.Add(time.Duration(hours) * time.Hour),
	}, nil
}

func (s *AuthService) GetModerator(ctx context.Context, id uint) (*models.Moderator, error) {
	var mod models.Moderator
	if err := s.db.WithContext(ctx).First(&mod, id).Error; err != nil {
		return nil, err
	}
	return &mod, nil
}

// EnsureDefaultAdmin creates an admin account when no moderator exists
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context, admin config.AdminConfig) error {
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Moderator{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword(admin.Password)
	if err != nil {
		return err
	}
	mod := &models.Moderator{
		Username: admin.Username,
		Password: hash,
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := db.Create(mod).Error; err != nil {
		return fmt.Errorf("create default admin: %w", err)
	}
	logger.Infof("[Auth] Created default admin %q, change its password", admin.Username)
	return nil
}

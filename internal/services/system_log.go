package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/huangang/modsentry/backend/internal/models"
	"github.com/huangang/modsentry/backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	auditMu sync.RWMutex
	auditDB *gorm.DB
)

// InitSystemLogger sets the database the audit helpers write to
func InitSystemLogger(db *gorm.DB) {
	auditMu.Lock()
	defer auditMu.Unlock()
	auditDB = db
}

func LogInfo(module, action, message string, moderatorID *uint, ip string, extra interface{}) {
	writeLog("info", module, action, message, moderatorID, ip, extra)
}

func LogWarning(module, action, message string, moderatorID *uint, ip string, extra interface{}) {
	writeLog("warning", module, action, message, moderatorID, ip, extra)
}

func LogError(module, action, message string, moderatorID *uint, ip string, extra interface{}) {
	writeLog("error", module, action, message, moderatorID, ip, extra)
}

func writeLog(level, module, action, message string, moderatorID *uint, ip string, extra interface{}) {
	auditMu.RLock()
	db := auditDB
	auditMu.RUnlock()
	if db == nil {
		return
	}

	var extraStr string
	if extra != nil {
		if b, err := json.Marshal(extra); err == nil {
			extraStr = string(b)
		}
	}

	entry := &models.SystemLog{
		Level:       level,
		Module:      module,
		Action:      action,
		Message:     message,
		ModeratorID: moderatorID,
		IP:          ip,
		Extra:       extraStr,
		CreatedAt:   time.Now(),
	}
	if err := db.Create(entry).Error; err != nil {
		logger.Warnf("[SystemLog] Failed to write audit entry %s/%s: %v", module, action, err)
	}
}

type SystemLogService struct {
	db *gorm.DB
}

func NewSystemLogService(db *gorm.DB) *SystemLogService {
	return &SystemLogService{db: db}
}

type SystemLogListRequest struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Level     string `form:"level"`
	Module    string `form:"module"`
	Action    string `form:"action"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Search    string `form:"search"`
}

type SystemLogListResponse struct {
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Items    []models.SystemLog `json:"items"`
}

func (s *SystemLogService) List(ctx context.Context, req *SystemLogListRequest) (*SystemLogListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	var logs []models.SystemLog
	var total int64

	query := s.db.WithContext(ctx).Model(&models.SystemLog{})

	if req.Level != "" {
		query = query.Where("level = ?", req.Level)
	}
	if req.Module != "" {
		query = query.Where("module = ?", req.Module)
	}
	if req.Action != "" {
		query = query.Where("action LIKE ?", "%"+req.Action+"%")
	}
	if req.StartDate != "" {
		query = query.Where("created_at >= ?", req.StartDate)
	}
	if req.EndDate != "" {
		query = query.Where("created_at <= ?", req.EndDate+" 23:59:59")
	}
	if req.Search != "" {
		query = query.Where("message LIKE ?", "%"+req.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, err
	}

	return &SystemLogListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    logs,
	}, nil
}

// CleanupOldLogs deletes entries older than retentionDays and returns how many were removed
func (s *SystemLogService) CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		logger.Infof("[SystemLog] Cleaned up %d logs older than %d days", result.RowsAffected, retentionDays)
	}
	return result.RowsAffected, nil
}

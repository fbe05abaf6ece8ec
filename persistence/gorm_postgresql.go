// persistence/gorm_postgresql.go
package persistence

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/roomstate/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := db.AutoMigrate(&models.GormPresence{}, &models.GormTransition{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// RecordTransition 在一个事务中更新会话状态并追加转换记录
func (p *GormPostgreSQL) RecordTransition(snapshot models.PresenceSnapshot, record models.TransitionRecord) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		var existing models.GormPresence
		result := tx.Where("session_id = ?", snapshot.SessionID).First(&existing)

		if result.Error == gorm.ErrRecordNotFound {
			existing = models.GormPresence{
				SessionID: snapshot.SessionID,
				UserID:    snapshot.UserID,
				Phase:     snapshot.Phase,
				RoomID:    snapshot.RoomID,
				Status:    snapshot.Status,
			}
			if err := tx.Create(&existing).Error; err != nil {
				return err
			}
		} else if result.Error != nil {
			return result.Error
		} else {
			existing.Phase = snapshot.Phase
			existing.RoomID = snapshot.RoomID
			existing.Status = snapshot.Status
			existing.UserID = snapshot.UserID
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
		}

		transition := models.GormTransition{
			SessionID: record.SessionID,
			UserID:    record.UserID,
			FromPhase: record.FromPhase,
			ToPhase:   record.ToPhase,
			RoomID:    record.RoomID,
			Status:    record.Status,
		}
		return tx.Create(&transition).Error
	})
}

// LoadPresence 加载会话当前状态
func (p *GormPostgreSQL) LoadPresence(sessionID string) (*models.PresenceSnapshot, error) {
	var row models.GormPresence
	if err := p.db.Where("session_id = ?", sessionID).First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return &models.PresenceSnapshot{
		SessionID: row.SessionID,
		UserID:    row.UserID,
		Phase:     row.Phase,
		RoomID:    row.RoomID,
		Status:    row.Status,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// SessionTransitions 加载会话的转换记录（最新在前）
func (p *GormPostgreSQL) SessionTransitions(sessionID string, limit int) ([]models.TransitionRecord, error) {
	var rows []models.GormTransition
	query := p.db.Where("session_id = ?", sessionID).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]models.TransitionRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, models.TransitionRecord{
			SessionID: row.SessionID,
			UserID:    row.UserID,
			FromPhase: row.FromPhase,
			ToPhase:   row.ToPhase,
			RoomID:    row.RoomID,
			Status:    row.Status,
			CreatedAt: row.CreatedAt,
		})
	}
	return records, nil
}

// GetUserStats 统计用户的转换情况
func (p *GormPostgreSQL) GetUserStats(userID int64) (*models.UserStats, error) {
	var stats models.UserStats

	err := p.db.Raw(
		`
        SELECT
            COUNT(*) as total_transitions,
            SUM(CASE WHEN to_phase IN ('ping', 'pong') THEN 1 ELSE 0 END) as joins,
            SUM(CASE WHEN to_phase = 'left' THEN 1 ELSE 0 END) as leaves,
            SUM(CASE WHEN to_phase = 'error' THEN 1 ELSE 0 END) as errors
        FROM gorm_transitions
        WHERE user_id = ? AND deleted_at IS NULL`,
		userID,
	).Scan(&stats).Error

	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

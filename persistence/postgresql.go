// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"

	"github.com/wfunc/roomstate/models"
)

// PostgreSQL 基于database/sql的实现
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 初始化表结构
	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	// 创建会话状态表
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS presences (
            id SERIAL PRIMARY KEY,
            session_id VARCHAR(255) UNIQUE NOT NULL,
            user_id BIGINT NOT NULL DEFAULT 0,
            phase VARCHAR(50) NOT NULL,
            room_id VARCHAR(255) NOT NULL DEFAULT '',
            status TEXT NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	// 创建转换记录表
	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS transitions (
            id SERIAL PRIMARY KEY,
            session_id VARCHAR(255) NOT NULL,
            user_id BIGINT NOT NULL DEFAULT 0,
            from_phase VARCHAR(50) NOT NULL,
            to_phase VARCHAR(50) NOT NULL,
            room_id VARCHAR(255) NOT NULL DEFAULT '',
            status TEXT NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_transitions_session_id ON transitions(session_id);
        CREATE INDEX IF NOT EXISTS idx_transitions_user_id ON transitions(user_id);
    `)
	return err
}

// RecordTransition 在一个事务中更新会话状态并追加转换记录
func (p *PostgreSQL) RecordTransition(snapshot models.PresenceSnapshot, record models.TransitionRecord) error {
	tx, err := p.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
        INSERT INTO presences (session_id, user_id, phase, room_id, status, updated_at)
        VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
        ON CONFLICT (session_id) DO UPDATE
        SET user_id = $2, phase = $3, room_id = $4, status = $5, updated_at = CURRENT_TIMESTAMP`,
		snapshot.SessionID, snapshot.UserID, snapshot.Phase, snapshot.RoomID, snapshot.Status,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
        INSERT INTO transitions (session_id, user_id, from_phase, to_phase, room_id, status)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		record.SessionID, record.UserID, record.FromPhase, record.ToPhase, record.RoomID, record.Status,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// LoadPresence 加载会话当前状态
func (p *PostgreSQL) LoadPresence(sessionID string) (*models.PresenceSnapshot, error) {
	var snapshot models.PresenceSnapshot
	err := p.db.QueryRow(`
        SELECT session_id, user_id, phase, room_id, status, created_at, updated_at
        FROM presences WHERE session_id = $1`,
		sessionID,
	).Scan(
		&snapshot.SessionID, &snapshot.UserID, &snapshot.Phase,
		&snapshot.RoomID, &snapshot.Status, &snapshot.CreatedAt, &snapshot.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// SessionTransitions 加载会话的转换记录（最新在前）
func (p *PostgreSQL) SessionTransitions(sessionID string, limit int) ([]models.TransitionRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := p.db.Query(`
        SELECT session_id, user_id, from_phase, to_phase, room_id, status, created_at
        FROM transitions WHERE session_id = $1
        ORDER BY id DESC LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.TransitionRecord
	for rows.Next() {
		var record models.TransitionRecord
		if err := rows.Scan(
			&record.SessionID, &record.UserID, &record.FromPhase,
			&record.ToPhase, &record.RoomID, &record.Status, &record.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// GetUserStats 统计用户的转换情况
func (p *PostgreSQL) GetUserStats(userID int64) (*models.UserStats, error) {
	var stats models.UserStats
	err := p.db.QueryRow(`
        SELECT
            COUNT(*),
            COALESCE(SUM(CASE WHEN to_phase IN ('ping', 'pong') THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN to_phase = 'left' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN to_phase = 'error' THEN 1 ELSE 0 END), 0)
        FROM transitions WHERE user_id = $1`,
		userID,
	).Scan(&stats.TotalTransitions, &stats.Joins, &stats.Leaves, &stats.Errors)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}

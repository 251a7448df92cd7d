// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package job

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	ExecutorOnline  = "ONLINE"
	ExecutorOffline = "OFFLINE"
)

// Executor is a worker row mirrored from the coordination service roster.
type Executor struct {
	gorm.Model

	ExecutorID         string    `gorm:"column:executor_id;uniqueIndex" json:"executor_id"`
	Host               string    `gorm:"column:host" json:"host"`
	Port               int       `gorm:"column:port" json:"port"`
	Status             string    `gorm:"column:status" json:"status"`
	CurrentLoad        int       `gorm:"column:current_load" json:"current_load"`
	MaxLoad            int       `gorm:"column:max_load" json:"max_load"`
	TotalTasksExecuted int64     `gorm:"column:total_tasks_executed" json:"total_tasks_executed"`
	LastHeartbeat      time.Time `gorm:"column:last_heartbeat" json:"last_heartbeat"`
}

// TableName returns the database table name for Executor.
func (e *Executor) TableName() string {
	return "executor_node"
}

// First queries and returns the first executor matching non-zero fields.
func (e *Executor) First(db *gorm.DB) (executor *Executor, err error) {
	err = db.Where(e).First(&executor).Error

	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return executor, err
}

// Create inserts the current Executor record.
func (e *Executor) Create(db *gorm.DB) (id uint, err error) {
	if err = db.Create(e).Error; err != nil {
		return 0, fmt.Errorf("create failed: %w", err)
	}

	id = e.ID

	return
}

// Updates rewrites selected fields of the current executor by executor_id.
func (e *Executor) Updates(db *gorm.DB, m map[string]interface{}) (err error) {
	if err = db.Model(&Executor{}).Where("executor_id = ?", e.ExecutorID).Updates(m).Error; err != nil {
		return fmt.Errorf("updates failed: %w", err)
	}
	return
}

// Delete removes the current executor row.
func (e *Executor) Delete(db *gorm.DB) (err error) {
	if err = db.Delete(e).Error; err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	return
}

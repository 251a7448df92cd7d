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
	StatusWaiting = "WAITING"
	StatusRunning = "RUNNING"
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
	StatusTimeout = "TIMEOUT"
)

// Execution is one attempt to run a Job on an Executor.
type Execution struct {
	gorm.Model

	JobID      string     `gorm:"column:job_id;index" json:"job_id"`
	ExecutorID string     `gorm:"column:executor_id" json:"executor_id"`
	Status     string     `gorm:"column:status" json:"status"`
	TriggerTime time.Time `gorm:"column:trigger_time" json:"trigger_time"`
	StartTime  *time.Time `gorm:"column:start_time" json:"start_time,omitempty"`
	EndTime    *time.Time `gorm:"column:end_time" json:"end_time,omitempty"`
	Output     string     `gorm:"column:output;type:text" json:"output,omitempty"`
	Error      string     `gorm:"column:error;type:text" json:"error,omitempty"`
}

// TableName returns the database table name for Execution.
func (e *Execution) TableName() string {
	return "job_execution"
}

// First queries and returns the first execution matching non-zero fields.
func (e *Execution) First(db *gorm.DB) (execution *Execution, err error) {
	err = db.Where(e).First(&execution).Error

	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return execution, err
}

// Create inserts the current Execution with status WAITING and
// trigger_time defaulted to row-create time.
//
// Returns:
//   - uint: store-assigned execution_id (the auto-increment primary key).
//   - error: wrapped create error when insertion fails.
func (e *Execution) Create(db *gorm.DB) (id uint, err error) {
	if e.Status == "" {
		e.Status = StatusWaiting
	}
	if e.TriggerTime.IsZero() {
		e.TriggerTime = time.Now()
	}

	if err = db.Create(e).Error; err != nil {
		return 0, fmt.Errorf("create failed: %w", err)
	}

	id = e.ID

	return
}

// Updates rewrites selected fields of the current execution by ID.
func (e *Execution) Updates(db *gorm.DB, m map[string]interface{}) (err error) {
	if err = db.Model(&Execution{}).Where("id = ?", e.ID).Updates(m).Error; err != nil {
		return fmt.Errorf("updates failed: %w", err)
	}
	return
}

// Delete soft-deletes the current execution row. The store adapter does not
// call it: the cleanup sweep hard-deletes expired rows with its own query,
// and job deletion leaves execution rows in place.
func (e *Execution) Delete(db *gorm.DB) (err error) {
	if err = db.Delete(e).Error; err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	return
}

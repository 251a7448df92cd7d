// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package job defines persistence models for the scheduling domain: job
// templates, executions, the executor roster, locks, and kv-config.
package job

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

const (
	TypeOnce     = "ONCE"
	TypePeriodic = "PERIODIC"
)

// Info is a durable job template.
type Info struct {
	gorm.Model

	JobID                string `gorm:"column:job_id;uniqueIndex" json:"job_id"`
	Name                 string `gorm:"column:name" json:"name"`
	Command              string `gorm:"column:command" json:"command"`
	Type                 string `gorm:"column:type" json:"type"`
	Priority             int    `gorm:"column:priority" json:"priority"`
	CronExpression       string `gorm:"column:cron_expression" json:"cron_expression"`
	TimeoutSeconds       int    `gorm:"column:timeout_seconds" json:"timeout_seconds"`
	RetryCount           int    `gorm:"column:retry_count" json:"retry_count"`
	RetryIntervalSeconds int    `gorm:"column:retry_interval_seconds" json:"retry_interval_seconds"`
}

// TableName returns the database table name for Info.
//
// Returns:
//   - string: physical table name in MySQL.
func (i *Info) TableName() string {
	return "job_info"
}

// First queries and returns the first job matching non-zero struct fields.
//
// Parameters:
//   - db: GORM database client.
//
// Returns:
//   - *Info: first matched job record.
//   - error: query error including gorm.ErrRecordNotFound when absent.
func (i *Info) First(db *gorm.DB) (job *Info, err error) {
	err = db.Where(i).First(&job).Error

	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return job, err
}

// Create inserts the current Info record into database. Fails if job_id
// already exists (insert-only, per the store adapter's saveJob guarantee).
//
// Parameters:
//   - db: GORM database client.
//
// Returns:
//   - uint: auto-increment primary key of inserted record.
//   - error: wrapped create error when insertion fails, including a
//     duplicate-key error when job_id already exists.
func (i *Info) Create(db *gorm.DB) (id uint, err error) {
	if err = db.Create(i).Error; err != nil {
		return 0, fmt.Errorf("create failed: %w", err)
	}

	id = i.ID

	return
}

// Updates rewrites selected mutable fields of the job by job_id. Fails if the
// row does not exist.
//
// Parameters:
//   - db: GORM database client.
//   - m: field-value map to update.
//
// Returns:
//   - error: wrapped update error when operation fails, or when no row
//     matched job_id.
func (i *Info) Updates(db *gorm.DB, m map[string]interface{}) (err error) {
	tx := db.Model(&Info{}).Where("job_id = ?", i.JobID).Updates(m)
	if tx.Error != nil {
		return fmt.Errorf("updates failed: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("updates failed: job %q not found", i.JobID)
	}
	return
}

// Delete soft-deletes the current Info record. Execution rows referencing
// this job are archived, not removed.
//
// Parameters:
//   - db: GORM database client.
//
// Returns:
//   - error: wrapped delete error when operation fails.
func (i *Info) Delete(db *gorm.DB) (err error) {
	if err = db.Delete(i).Error; err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	return
}

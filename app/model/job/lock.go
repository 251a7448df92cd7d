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

// Lock is a cooperative mutual-exclusion row. A lock is held iff
// now < ExpireTime.
type Lock struct {
	gorm.Model

	LockName   string    `gorm:"column:lock_name;uniqueIndex" json:"lock_name"`
	LockOwner  string    `gorm:"column:lock_owner" json:"lock_owner"`
	LockTime   time.Time `gorm:"column:lock_time" json:"lock_time"`
	ExpireTime time.Time `gorm:"column:expire_time" json:"expire_time"`
}

// TableName returns the database table name for Lock.
func (l *Lock) TableName() string {
	return "job_lock"
}

// First queries and returns the first lock matching non-zero fields.
func (l *Lock) First(db *gorm.DB) (lock *Lock, err error) {
	err = db.Where(l).First(&lock).Error

	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return lock, err
}

// Create inserts the current Lock record.
func (l *Lock) Create(db *gorm.DB) (id uint, err error) {
	if err = db.Create(l).Error; err != nil {
		return 0, fmt.Errorf("create failed: %w", err)
	}

	id = l.ID

	return
}

// Updates rewrites selected fields of the current lock by lock_name.
func (l *Lock) Updates(db *gorm.DB, m map[string]interface{}) (err error) {
	if err = db.Model(&Lock{}).Where("lock_name = ?", l.LockName).Updates(m).Error; err != nil {
		return fmt.Errorf("updates failed: %w", err)
	}
	return
}

// Delete hard-deletes the current lock row. Locks are ephemeral
// mutual-exclusion rows, not audit history, and lock_name carries a plain
// (non-partial) unique index, so a soft delete here would leave the row
// physically present and block every subsequent AcquireLock for the same
// name behind a duplicate-key error.
func (l *Lock) Delete(db *gorm.DB) (err error) {
	if err = db.Unscoped().Delete(l).Error; err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	return
}

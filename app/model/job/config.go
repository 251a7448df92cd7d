// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package job

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// SystemConfig is a durable key-value configuration row.
type SystemConfig struct {
	gorm.Model

	Key         string `gorm:"column:key;uniqueIndex" json:"key"`
	Value       string `gorm:"column:value;type:text" json:"value"`
	Description string `gorm:"column:description" json:"description"`
}

// TableName returns the database table name for SystemConfig.
func (c *SystemConfig) TableName() string {
	return "system_config"
}

// First queries and returns the first config row matching non-zero fields.
func (c *SystemConfig) First(db *gorm.DB) (cfg *SystemConfig, err error) {
	err = db.Where(c).First(&cfg).Error

	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return cfg, err
}

// Create inserts the current SystemConfig record.
func (c *SystemConfig) Create(db *gorm.DB) (id uint, err error) {
	if err = db.Create(c).Error; err != nil {
		return 0, fmt.Errorf("create failed: %w", err)
	}

	id = c.ID

	return
}

// Updates rewrites selected fields of the current config row by key.
func (c *SystemConfig) Updates(db *gorm.DB, m map[string]interface{}) (err error) {
	if err = db.Model(&SystemConfig{}).Where("key = ?", c.Key).Updates(m).Error; err != nil {
		return fmt.Errorf("updates failed: %w", err)
	}
	return
}

// Delete removes the current config row.
func (c *SystemConfig) Delete(db *gorm.DB) (err error) {
	if err = db.Delete(c).Error; err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	return
}

// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package job

import (
	"context"
	"errors"

	jobmodel "github.com/seakee/dockmon/app/model/job"
	"gorm.io/gorm"
)

// GetConfigValue reads one kv-config value by key.
func (r *repo) GetConfigValue(ctx context.Context, key string) (value string, err error) {
	err = r.timed(ctx, "GetConfigValue", func() error {
		cfg, innerErr := (&jobmodel.SystemConfig{Key: key}).First(r.db)
		if innerErr != nil {
			return innerErr
		}
		value = cfg.Value
		return nil
	})
	return
}

// SetConfigValue upserts one kv-config row.
func (r *repo) SetConfigValue(ctx context.Context, key, value, description string) error {
	return r.timed(ctx, "SetConfigValue", func() error {
		existing, err := (&jobmodel.SystemConfig{Key: key}).First(r.db)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if existing == nil {
			cfg := &jobmodel.SystemConfig{Key: key, Value: value, Description: description}
			_, createErr := cfg.Create(r.db)
			return createErr
		}

		return existing.Updates(r.db, map[string]interface{}{
			"value":       value,
			"description": description,
		})
	})
}

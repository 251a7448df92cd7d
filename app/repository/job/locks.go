// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package job

import (
	"context"
	"errors"
	"time"

	jobmodel "github.com/seakee/dockmon/app/model/job"
	"gorm.io/gorm"
)

// AcquireLock is an atomic upsert: insert if the row is absent, otherwise
// overwrite owner/expire only when the prior row has expired or is
// self-owned. The holder is checked afterwards to distinguish success from
// silent conflict.
func (r *repo) AcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (acquired bool, err error) {
	err = r.timed(ctx, "AcquireLock", func() error {
		now := time.Now()
		expire := now.Add(ttl)

		existing, findErr := (&jobmodel.Lock{LockName: name}).First(r.db)
		if findErr != nil && !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		if existing == nil {
			lock := &jobmodel.Lock{LockName: name, LockOwner: owner, LockTime: now, ExpireTime: expire}
			if _, createErr := lock.Create(r.db); createErr != nil {
				return createErr
			}
			acquired = true
			return nil
		}

		if existing.ExpireTime.After(now) && existing.LockOwner != owner {
			acquired = false
			return nil
		}

		tx := r.db.Model(&jobmodel.Lock{}).
			Where("lock_name = ? AND (expire_time <= ? OR lock_owner = ?)", name, now, owner).
			Updates(map[string]interface{}{"lock_owner": owner, "lock_time": now, "expire_time": expire})
		if tx.Error != nil {
			return tx.Error
		}
		if tx.RowsAffected == 0 {
			return nil
		}

		holder, findErr := (&jobmodel.Lock{LockName: name}).First(r.db)
		if findErr != nil {
			return findErr
		}
		acquired = holder.LockOwner == owner

		return nil
	})
	return
}

// ReleaseLock deletes the lock row only if owner matches the current holder.
func (r *repo) ReleaseLock(ctx context.Context, name, owner string) error {
	return r.timed(ctx, "ReleaseLock", func() error {
		lock, err := (&jobmodel.Lock{LockName: name}).First(r.db)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if lock.LockOwner != owner {
			return nil
		}
		return lock.Delete(r.db)
	})
}

// RefreshLock extends expire_time for a lock still held by owner.
func (r *repo) RefreshLock(ctx context.Context, name, owner string, ttl time.Duration) error {
	return r.timed(ctx, "RefreshLock", func() error {
		lock, err := (&jobmodel.Lock{LockName: name}).First(r.db)
		if err != nil {
			return err
		}
		if lock.LockOwner != owner {
			return errors.New("lock refresh: owner mismatch")
		}
		return lock.Updates(r.db, map[string]interface{}{"expire_time": time.Now().Add(ttl)})
	})
}

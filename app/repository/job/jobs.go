// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package job

import (
	"context"

	jobmodel "github.com/seakee/dockmon/app/model/job"
)

// SaveJob inserts a new job template. Insert-only: fails if job_id exists.
func (r *repo) SaveJob(ctx context.Context, j *jobmodel.Info) (id uint, err error) {
	err = r.timed(ctx, "SaveJob", func() error {
		var innerErr error
		id, innerErr = j.Create(r.db)
		return innerErr
	})
	return
}

// UpdateJob rewrites mutable fields of the job identified by jobID. Fails if
// the row does not exist.
func (r *repo) UpdateJob(ctx context.Context, jobID string, fields map[string]interface{}) error {
	return r.timed(ctx, "UpdateJob", func() error {
		j := &jobmodel.Info{JobID: jobID}
		return j.Updates(r.db, fields)
	})
}

// DeleteJob soft-deletes the job row. Executions referencing it are left in
// place (archived, not removed).
func (r *repo) DeleteJob(ctx context.Context, jobID string) error {
	return r.timed(ctx, "DeleteJob", func() error {
		j, err := (&jobmodel.Info{JobID: jobID}).First(r.db)
		if err != nil {
			return err
		}
		return j.Delete(r.db)
	})
}

// GetJob fetches one job by job_id.
func (r *repo) GetJob(ctx context.Context, jobID string) (job *jobmodel.Info, err error) {
	err = r.timed(ctx, "GetJob", func() error {
		var innerErr error
		job, innerErr = (&jobmodel.Info{JobID: jobID}).First(r.db)
		return innerErr
	})
	return
}

// GetAllJobs pages over every job template, ordered by creation time.
func (r *repo) GetAllJobs(ctx context.Context, limit, offset int) (jobs []jobmodel.Info, err error) {
	err = r.timed(ctx, "GetAllJobs", func() error {
		return r.db.Order("created_at ASC").Limit(limit).Offset(offset).Find(&jobs).Error
	})
	return
}

// GetJobsByType pages over job templates of a single type.
func (r *repo) GetJobsByType(ctx context.Context, jobType string, limit, offset int) (jobs []jobmodel.Info, err error) {
	err = r.timed(ctx, "GetJobsByType", func() error {
		return r.db.Where("type = ?", jobType).Order("created_at ASC").Limit(limit).Offset(offset).Find(&jobs).Error
	})
	return
}

// GetPendingJobs returns jobs with no RUNNING execution row, the gate that
// prevents double-dispatch of an in-flight one-shot, ordered by
// (priority DESC, create_time ASC).
func (r *repo) GetPendingJobs(ctx context.Context, limit int) (jobs []jobmodel.Info, err error) {
	err = r.timed(ctx, "GetPendingJobs", func() error {
		sub := r.db.Model(&jobmodel.Execution{}).
			Select("job_id").
			Where("status = ?", jobmodel.StatusRunning)

		return r.db.Model(&jobmodel.Info{}).
			Where("job_id NOT IN (?)", sub).
			Order("priority DESC, created_at ASC").
			Limit(limit).
			Find(&jobs).Error
	})
	return
}

// GetJobCount returns the total number of job templates.
func (r *repo) GetJobCount(ctx context.Context) (count int64, err error) {
	err = r.timed(ctx, "GetJobCount", func() error {
		return r.db.Model(&jobmodel.Info{}).Count(&count).Error
	})
	return
}

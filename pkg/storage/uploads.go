package storage

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/osipovk/autobackuper/pkg/domain"
)

const (
	uploadInsertQuery = `
		INSERT INTO uploads (
			rule_path, folder_id, account, file_name,
			status, detail, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	uploadSelectLatestPerRule = `
		SELECT
			id,
			rule_path, folder_id, account, file_name,
			status, detail, created_at
		FROM uploads
		WHERE id IN (
			SELECT MAX(id) FROM uploads GROUP BY rule_path, folder_id
		)
		ORDER BY created_at DESC
	`

	uploadDeleteOlderThan = `
		DELETE FROM uploads WHERE created_at < ?
	`
)

type UploadRepository struct {
	db *sqlx.DB
}

func NewUploadRepository(db *sqlx.DB) *UploadRepository {
	return &UploadRepository{
		db: db,
	}
}

func (r *UploadRepository) Create(ctx context.Context, upload domain.Upload) (domain.Upload, error) {
	stmt, err := r.db.PrepareContext(ctx, uploadInsertQuery)
	if err != nil {
		return upload, err
	}

	res, err := stmt.ExecContext(
		ctx,
		upload.RulePath, upload.FolderId, upload.Account, upload.FileName,
		upload.Status, upload.Detail, upload.CreatedAt,
	)
	if err != nil {
		return upload, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return upload, err
	}

	upload.Id = id

	return upload, nil
}

// FindLatestPerRule returns the most recent upload attempt for every
// rule/destination pair that has ever fired.
func (r *UploadRepository) FindLatestPerRule(ctx context.Context) ([]domain.Upload, error) {
	var uploads []domain.Upload

	err := r.db.SelectContext(ctx, &uploads, uploadSelectLatestPerRule)
	if err != nil {
		return nil, err
	}

	return uploads, nil
}

// DeleteOlderThan drops history rows created before the cutoff and returns
// how many were removed.
func (r *UploadRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, uploadDeleteOlderThan, cutoff)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

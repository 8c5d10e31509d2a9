package sqlfx

import (
	"github.com/jmoiron/sqlx"

	"github.com/osipovk/autobackuper/pkg/domain"
	"github.com/osipovk/autobackuper/pkg/http/handler"
	"github.com/osipovk/autobackuper/pkg/storage"
)

func UploadsRepository(db *sqlx.DB) (
	*storage.UploadRepository,
	domain.UploadRecorder,
	handler.UploadRepository,
) {
	repo := storage.NewUploadRepository(db)

	return repo, repo, repo
}

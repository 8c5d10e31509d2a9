package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/osipovk/autobackuper/pkg/appcontext"
	"github.com/osipovk/autobackuper/pkg/domain"
)

type UploadRepository interface {
	FindLatestPerRule(context.Context) ([]domain.Upload, error)
}

// UploadStatusHandler serves the latest upload attempt per rule, which is
// what an external display refreshes after every engine tick.
type UploadStatusHandler struct {
	logger logrus.FieldLogger
	repo   UploadRepository
}

func NewUploadStatusHandler(logger logrus.FieldLogger, repo UploadRepository) *UploadStatusHandler {
	return &UploadStatusHandler{
		logger: logger,
		repo:   repo,
	}
}

type uploadStatusResponse struct {
	RulePath  string `json:"rule_path"`
	FolderId  string `json:"folder_id"`
	Account   string `json:"account"`
	FileName  string `json:"file_name"`
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt int64  `json:"created_at_mtime"`
}

func (h *UploadStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	logger := appcontext.LoggerFromContext(h.logger, ctx)

	uploads, err := h.repo.FindLatestPerRule(ctx)
	if err != nil {
		logger.WithError(err).Error("Unable to query latest uploads")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	var result []uploadStatusResponse

	for _, u := range uploads {
		result = append(result, uploadStatusResponse{
			RulePath:  u.RulePath,
			FolderId:  u.FolderId,
			Account:   u.Account,
			FileName:  u.FileName,
			Status:    u.Status.String(),
			Detail:    u.Detail,
			CreatedAt: u.CreatedAt.UnixNano() / 1e6,
		})
	}

	enc := json.NewEncoder(w)
	err = enc.Encode(result)
	if err != nil {
		logger.WithError(err).Error("Unable to encode response")
		w.WriteHeader(http.StatusInternalServerError)
	}
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/osipovk/autobackuper/pkg/appcontext"
	"github.com/osipovk/autobackuper/pkg/drive"
)

type FolderLister interface {
	ListFolders(ctx context.Context, parentID string) ([]drive.Folder, error)
}

// FolderBrowseHandler lists remote child folders of a given parent, so a
// rule editor can pick a destination folder id without leaving the app.
type FolderBrowseHandler struct {
	logger logrus.FieldLogger
	lister FolderLister
}

func NewFolderBrowseHandler(logger logrus.FieldLogger, lister FolderLister) *FolderBrowseHandler {
	return &FolderBrowseHandler{
		logger: logger,
		lister: lister,
	}
}

type folderResponse struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

func (h *FolderBrowseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	logger := appcontext.LoggerFromContext(h.logger, ctx)

	parent := r.URL.Query().Get("parent")
	if parent == "" {
		parent = "root"
	}

	folders, err := h.lister.ListFolders(ctx, parent)
	if err != nil {
		logger.WithError(err).Error("Unable to list remote folders")
		w.WriteHeader(http.StatusBadGateway)
		return
	}

	var result []folderResponse
	for _, f := range folders {
		result = append(result, folderResponse{Id: f.Id, Name: f.Name})
	}

	enc := json.NewEncoder(w)
	err = enc.Encode(result)
	if err != nil {
		logger.WithError(err).Error("Unable to encode response")
		w.WriteHeader(http.StatusInternalServerError)
	}
}

package statusfx

import (
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/osipovk/autobackuper/pkg/drive"
	"github.com/osipovk/autobackuper/pkg/http/handler"
)

func UploadStatusHandler(
	logger *logrus.Logger,
	repository handler.UploadRepository,
) *handler.UploadStatusHandler {
	return handler.NewUploadStatusHandler(logger, repository)
}

func FolderBrowseHandler(
	logger *logrus.Logger,
	client *drive.Client,
) *handler.FolderBrowseHandler {
	return handler.NewFolderBrowseHandler(logger, client)
}

func RegisterHandlers(
	router *mux.Router,
	uploads *handler.UploadStatusHandler,
	folders *handler.FolderBrowseHandler,
) {
	router.Handle("/status/uploads", uploads)
	router.Handle("/drive/folders", folders)
}

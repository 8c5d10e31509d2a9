package drive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/osipovk/autobackuper/pkg/domain"
)

const folderMimeType = "application/vnd.google-apps.folder"

const (
	DefaultCallTimeout   = 30 * time.Second
	DefaultUploadTimeout = 10 * time.Minute
)

// Client adapts the Google Drive v3 API to the engine's RemoteClient
// capability. Every call is bounded: metadata lookups by callTimeout,
// content transfers by uploadTimeout.
type Client struct {
	service *drive.Service

	callTimeout   time.Duration
	uploadTimeout time.Duration
}

func NewClient(service *drive.Service, callTimeout, uploadTimeout time.Duration) *Client {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	if uploadTimeout <= 0 {
		uploadTimeout = DefaultUploadTimeout
	}

	return &Client{
		service: service,

		callTimeout:   callTimeout,
		uploadTimeout: uploadTimeout,
	}
}

// CheckFolder reports whether folderID names an existing Drive folder. A 404
// from the API, or an object that is not a folder, is a clean FolderNotFound;
// anything else is a transport error.
func (c *Client) CheckFolder(ctx context.Context, folderID string) (domain.FolderStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	f, err := c.service.Files.Get(folderID).Fields("id, name, mimeType").Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return domain.FolderNotFound, nil
		}
		return domain.FolderNotFound, errors.Wrap(err, "drive: folder lookup failed")
	}

	if f.MimeType != folderMimeType {
		return domain.FolderNotFound, nil
	}

	return domain.FolderFound, nil
}

// FindFileByName looks up a non-trashed file with the exact given name
// directly inside the folder. A nil handle means no such file exists.
func (c *Client) FindFileByName(ctx context.Context, folderID, name string) (*domain.RemoteFile, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	query := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false", escapeQuery(name), escapeQuery(folderID))

	list, err := c.service.Files.List().Q(query).PageSize(1).Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrap(err, "drive: file lookup failed")
	}

	if len(list.Files) == 0 {
		return nil, nil
	}

	return &domain.RemoteFile{
		Id:       list.Files[0].Id,
		Name:     list.Files[0].Name,
		FolderId: folderID,
	}, nil
}

func (c *Client) CreateFile(ctx context.Context, folderID, name string, content io.Reader) (*domain.RemoteFile, error) {
	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	f, err := c.service.Files.
		Create(&drive.File{Name: name, Parents: []string{folderID}}).
		Media(content, googleapi.ContentType("application/octet-stream")).
		Fields("id, name").
		Context(ctx).
		Do()
	if err != nil {
		return nil, errors.Wrap(err, "drive: file create failed")
	}

	return &domain.RemoteFile{Id: f.Id, Name: f.Name, FolderId: folderID}, nil
}

func (c *Client) UpdateFile(ctx context.Context, file *domain.RemoteFile, content io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	_, err := c.service.Files.
		Update(file.Id, &drive.File{}).
		Media(content, googleapi.ContentType("application/octet-stream")).
		Context(ctx).
		Do()

	return errors.Wrap(err, "drive: file update failed")
}

// Folder is one remote folder as shown by the folder browser endpoint.
type Folder struct {
	Id   string
	Name string
}

// ListFolders returns the non-trashed child folders of parentID ("root" for
// the Drive root).
func (c *Client) ListFolders(ctx context.Context, parentID string) ([]Folder, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	query := fmt.Sprintf("'%s' in parents and mimeType = '%s' and trashed = false", escapeQuery(parentID), folderMimeType)

	var folders []Folder
	pageToken := ""

	for {
		call := c.service.Files.List().Q(query).Fields("nextPageToken, files(id, name)").Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		list, err := call.Do()
		if err != nil {
			return nil, errors.Wrap(err, "drive: folder listing failed")
		}

		for _, f := range list.Files {
			folders = append(folders, Folder{Id: f.Id, Name: f.Name})
		}

		if list.NextPageToken == "" {
			return folders, nil
		}
		pageToken = list.NextPageToken
	}
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 404
	}
	return false
}

// Drive query strings delimit values with single quotes; backslashes and
// quotes inside values must be escaped.
func escapeQuery(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, `'`, `\'`)
}

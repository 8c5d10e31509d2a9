package drivefx

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/osipovk/autobackuper/pkg/domain"
	"github.com/osipovk/autobackuper/pkg/drive"
)

const (
	ConfigDriveCredentialsFile = "drive.credentials_file"
	ConfigDriveTokenFile       = "drive.token_file"
	ConfigDriveCallTimeout     = "drive.timeout"
	ConfigDriveUploadTimeout   = "drive.upload_timeout"

	DefaultCredentialsFile = "config/credentials.json"
	DefaultTokenFile       = "config/token.json"
)

var (
	ErrCredentialsFileMissing = errors.New("drive: credentials file does not exist")
	ErrTokenFileMissing       = errors.New("drive: token file does not exist")
)

type DriveConfig struct {
	CredentialsFile string
	TokenFile       string

	CallTimeout   time.Duration
	UploadTimeout time.Duration
}

func DriveConfigProvider(v *viper.Viper) *DriveConfig {
	config := &DriveConfig{
		CredentialsFile: v.GetString(ConfigDriveCredentialsFile),
		TokenFile:       v.GetString(ConfigDriveTokenFile),
		CallTimeout:     v.GetDuration(ConfigDriveCallTimeout),
		UploadTimeout:   v.GetDuration(ConfigDriveUploadTimeout),
	}

	if config.CredentialsFile == "" {
		config.CredentialsFile = DefaultCredentialsFile
	}
	if config.TokenFile == "" {
		config.TokenFile = DefaultTokenFile
	}

	return config
}

// DriveService builds the Drive API binding from pre-provisioned credential
// files. Both files must exist: obtaining them (the OAuth browser flow) is
// outside this process. A failure here is fatal at startup, the engine never
// starts without a remote session.
func DriveService(config *DriveConfig, logger *logrus.Logger) (*gdrive.Service, error) {
	credentials, err := os.ReadFile(config.CredentialsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrCredentialsFileMissing, "'%s'", config.CredentialsFile)
		}
		return nil, errors.Wrap(err, "Unable to read credentials file")
	}

	oauthConfig, err := google.ConfigFromJSON(credentials, gdrive.DriveScope)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to parse credentials file")
	}

	tokenData, err := os.ReadFile(config.TokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrTokenFileMissing, "'%s'", config.TokenFile)
		}
		return nil, errors.Wrap(err, "Unable to read token file")
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, errors.Wrap(err, "Unable to parse token file")
	}

	logger.WithField("credentials_file", config.CredentialsFile).Debug("Connecting to Google Drive")

	client := oauthConfig.Client(context.Background(), &token)

	service, err := gdrive.NewService(context.Background(), option.WithHTTPClient(client))
	if err != nil {
		return nil, errors.Wrap(err, "Unable to create drive service")
	}

	return service, nil
}

func RemoteClient(config *DriveConfig, service *gdrive.Service) (domain.RemoteClient, *drive.Client) {
	client := drive.NewClient(service, config.CallTimeout, config.UploadTimeout)

	return client, client
}

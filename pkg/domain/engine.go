package domain

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/osipovk/autobackuper/pkg/appcontext"
)

const DefaultTickInterval = time.Minute

var (
	ErrNilRules      = errors.New("engine: rule collection is nil")
	ErrNilClient     = errors.New("engine: remote client is nil")
	ErrUploadFailed  = errors.New("engine: file has not been uploaded")
	ErrFolderMissing = errors.New("engine: destination folder does not exist")
)

type FolderStatus int

const (
	FolderFound FolderStatus = iota
	FolderNotFound
)

// RemoteFile is a handle to an object in the remote store.
type RemoteFile struct {
	Id       string
	Name     string
	FolderId string
}

// RemoteClient is the capability contract the engine needs from the cloud
// storage binding. A transport failure (network, auth, timeout) is a non-nil
// error; a clean "not found" is FolderNotFound or a nil *RemoteFile.
type RemoteClient interface {
	CheckFolder(ctx context.Context, folderID string) (FolderStatus, error)
	FindFileByName(ctx context.Context, folderID, name string) (*RemoteFile, error)
	CreateFile(ctx context.Context, folderID, name string, content io.Reader) (*RemoteFile, error)
	UpdateFile(ctx context.Context, file *RemoteFile, content io.Reader) error
}

type uploadStatus int

const (
	// Remote object did not exist and was created
	UploadStatusCreated uploadStatus = iota

	// Remote object existed and its content was overwritten
	UploadStatusUpdated

	// Upload failed, detail carries the cause
	UploadStatusFailed
)

func (s uploadStatus) String() string {
	switch s {
	case UploadStatusCreated:
		return "created"
	case UploadStatusUpdated:
		return "updated"
	default:
		return "failed"
	}
}

// Upload is one upload attempt of a single local file, recorded for history.
type Upload struct {
	Id int64

	RulePath string
	FolderId string
	Account  string
	FileName string

	Status uploadStatus
	Detail string

	CreatedAt time.Time
}

type UploadRecorder interface {
	Create(context.Context, Upload) (Upload, error)
}

type EventKind int

const (
	// One full pass over the rule snapshot has finished
	EventTickCompleted EventKind = iota

	// A per-rule or per-file failure; Message is human-readable, non-fatal
	EventRuleError
)

type Event struct {
	Kind    EventKind
	Message string
}

// Engine owns a snapshot of backup rules and drives them against the remote
// store. Once per tick interval it evaluates which rules are due at the
// current minute and uploads the top-level files of each due rule's source
// directory, upserting by file name so that repeated ticks within the same
// minute never create duplicate remote files.
//
// The snapshot is fixed at construction; rule edits take effect by
// constructing a new engine.
type Engine struct {
	logger logrus.FieldLogger

	rules   []Rule
	client  RemoteClient
	history UploadRecorder

	interval time.Duration
	events   chan Event

	now func() time.Time
}

func NewEngine(
	logger logrus.FieldLogger,
	rules []Rule,
	client RemoteClient,
	history UploadRecorder,
	interval time.Duration,
) (*Engine, error) {
	if rules == nil {
		return nil, ErrNilRules
	}
	if client == nil {
		return nil, ErrNilClient
	}

	if interval <= 0 {
		interval = DefaultTickInterval
	}

	return &Engine{
		logger: logger,

		rules:   rules,
		client:  client,
		history: history,

		interval: interval,
		events:   make(chan Event, 16),

		now: time.Now,
	}, nil
}

// Events returns the channel on which the engine publishes tick and error
// notifications. Sends never block: when no listener keeps up, events are
// dropped and logged.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Run executes the tick loop until ctx is cancelled. The first evaluation
// happens immediately, subsequent ones once per tick interval.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.WithField("interval", e.interval).Info("Starting scheduling engine")

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	// Listeners ranging over Events() terminate with the engine.
	defer close(e.events)

	for {
		e.evaluateTick(ctx)

		select {
		case <-ctx.Done():
			e.logger.Info("Scheduling engine stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// evaluateTick runs one pass over the rule snapshot. Per-rule and per-file
// failures are reported as events and never abort the remaining rules.
func (e *Engine) evaluateTick(ctx context.Context) {
	now := e.now()

	for _, rule := range e.rules {
		if ctx.Err() != nil {
			return
		}

		if !rule.DueAt(now) {
			continue
		}

		e.syncRule(ctx, rule)
	}

	e.emit(Event{Kind: EventTickCompleted})
}

func (e *Engine) syncRule(ctx context.Context, rule Rule) {
	ctx = appcontext.WithAccount(appcontext.WithRulePath(ctx, rule.PathFrom), rule.Account)
	logger := appcontext.LoggerFromContext(e.logger, ctx)

	logger.WithField("folder_id", rule.FolderId).Info("Rule is due, synchronizing")

	status, err := e.client.CheckFolder(ctx, rule.FolderId)
	if err != nil {
		logger.WithError(err).Error("Unable to check destination folder")
		e.emit(Event{Kind: EventRuleError, Message: fmt.Sprintf("folder check for '%s' failed: %v", rule.FolderId, err)})
		return
	}

	if status == FolderNotFound {
		logger.Warn("Destination folder does not exist")
		e.emit(Event{Kind: EventRuleError, Message: fmt.Sprintf("%v: '%s'", ErrFolderMissing, rule.FolderId)})
		return
	}

	entries, err := os.ReadDir(rule.PathFrom)
	if err != nil {
		logger.WithError(err).Error("Unable to read source directory")
		e.emit(Event{Kind: EventRuleError, Message: fmt.Sprintf("source directory '%s' is not readable: %v", rule.PathFrom, err)})
		return
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}

		if !entry.Type().IsRegular() {
			continue
		}

		err := e.syncFile(ctx, rule, entry.Name())
		if err != nil {
			logger.WithError(err).WithField("file", entry.Name()).Error("Unable to upload file")

			e.emit(Event{Kind: EventRuleError, Message: fmt.Sprintf("upload of '%s' failed: %v", entry.Name(), err)})
			e.record(ctx, rule, entry.Name(), UploadStatusFailed, err.Error())

			continue
		}
	}
}

// syncFile upserts a single local file into the rule's destination folder:
// an existing remote object with the same name is overwritten, otherwise a
// new object is created.
func (e *Engine) syncFile(ctx context.Context, rule Rule, name string) error {
	ctx = appcontext.WithFileName(ctx, name)
	logger := appcontext.LoggerFromContext(e.logger, ctx)

	f, err := os.Open(filepath.Join(rule.PathFrom, name))
	if err != nil {
		return errors.Wrap(ErrUploadFailed, err.Error())
	}
	defer f.Close()

	remote, err := e.client.FindFileByName(ctx, rule.FolderId, name)
	if err != nil {
		return errors.Wrap(ErrUploadFailed, err.Error())
	}

	if remote != nil {
		logger.Debug("Remote file exists, updating")

		if err := e.client.UpdateFile(ctx, remote, f); err != nil {
			return errors.Wrap(ErrUploadFailed, err.Error())
		}

		e.record(ctx, rule, name, UploadStatusUpdated, "")
		return nil
	}

	logger.Debug("Remote file does not exist, creating")

	if _, err := e.client.CreateFile(ctx, rule.FolderId, name, f); err != nil {
		return errors.Wrap(ErrUploadFailed, err.Error())
	}

	e.record(ctx, rule, name, UploadStatusCreated, "")
	return nil
}

func (e *Engine) record(ctx context.Context, rule Rule, name string, status uploadStatus, detail string) {
	if e.history == nil {
		return
	}

	_, err := e.history.Create(ctx, Upload{
		RulePath:  rule.PathFrom,
		FolderId:  rule.FolderId,
		Account:   rule.Account,
		FileName:  name,
		Status:    status,
		Detail:    detail,
		CreatedAt: e.now(),
	})
	if err != nil {
		appcontext.LoggerFromContext(e.logger, ctx).WithError(err).Warn("Unable to record upload history")
	}
}

func (e *Engine) emit(event Event) {
	select {
	case e.events <- event:
	default:
		e.logger.WithField("kind", event.Kind).Warn("Unable to dispatch event, no listener keeps up")
	}
}

// Package files is the model detail screen: the artifacts attached to one
// model, with upload, download, delete and image preview.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/nexusforge/console/pkg/api"
	"github.com/nexusforge/console/pkg/common/logger"
	"github.com/nexusforge/console/pkg/common/models"
	"github.com/nexusforge/console/pkg/events"
	"github.com/nexusforge/console/pkg/notice"
	"golang.org/x/sync/singleflight"
)

// defaultPreviewLimit caps how much of an image is held in memory.
const defaultPreviewLimit = 16 << 20

type API interface {
	ListModelFiles(ctx context.Context, modelID int64) ([]models.ModelFile, error)
	UploadModelFile(ctx context.Context, modelID int64, fileType models.FileType, fileName string, content io.Reader) (models.ModelFile, error)
	DownloadModelFile(ctx context.Context, fileID int64) (io.ReadCloser, error)
	DeleteModelFile(ctx context.Context, fileID int64) error
}

type Deps struct {
	Notifier notice.Notifier
	Bus      *events.Bus
	// PreviewLimit is the largest image Preview accepts, in bytes. Zero
	// means 16 MiB.
	PreviewLimit int64
}

// Selection is a local file chosen for upload.
type Selection struct {
	Path     string
	Name     string
	FileType models.FileType
}

type Manager struct {
	client   API
	modelID  int64
	notifier notice.Notifier
	bus      *events.Bus

	life   context.Context
	cancel context.CancelFunc

	mu        sync.RWMutex
	files     []models.ModelFile
	loaded    bool
	selection *Selection

	previewMu    sync.Mutex
	previews     map[int64][]byte
	previewLimit int64
	fetches      singleflight.Group
}

func NewManager(client API, modelID int64, deps Deps) *Manager {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notice.Discard
	}
	limit := deps.PreviewLimit
	if limit <= 0 {
		limit = defaultPreviewLimit
	}
	life, cancel := context.WithCancel(context.Background())
	return &Manager{
		client:   client,
		modelID:  modelID,
		notifier: notifier,
		bus:      deps.Bus,
		life:     life,
		cancel:   cancel,
		previews:     make(map[int64][]byte),
		previewLimit: limit,
	}
}

func (m *Manager) ModelID() int64 { return m.modelID }

func (m *Manager) Files() []models.ModelFile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.ModelFile(nil), m.files...)
}

func (m *Manager) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}

func (m *Manager) Selection() (Selection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.selection == nil {
		return Selection{}, false
	}
	return *m.selection, true
}

func (m *Manager) Load(ctx context.Context) error {
	ctx, done, err := m.scope(ctx)
	if err != nil {
		return err
	}
	defer done()

	list, err := m.client.ListModelFiles(ctx, m.modelID)
	if m.life.Err() != nil {
		return ErrClosed
	}
	if err != nil {
		logger.Log.WithError(err).WithField("model_id", m.modelID).Warn("File list request failed")
		notice.Error(m.notifier, "Failed to load files")
		return fmt.Errorf("load files of model %d: %w", m.modelID, err)
	}
	if list == nil {
		list = []models.ModelFile{}
	}

	m.mu.Lock()
	m.files = list
	m.loaded = true
	m.mu.Unlock()
	return nil
}

// Select stages path for upload as fileType. A rejected file clears any
// previous selection.
func (m *Manager) Select(path string, fileType models.FileType) error {
	name := filepath.Base(path)
	err := ValidateFile(name, fileType)
	if err == nil {
		var info os.FileInfo
		if info, err = os.Stat(path); err == nil && !info.Mode().IsRegular() {
			err = fmt.Errorf("%s is not a regular file", path)
		}
	}

	m.mu.Lock()
	if err != nil {
		m.selection = nil
	} else {
		m.selection = &Selection{Path: path, Name: name, FileType: fileType}
	}
	m.mu.Unlock()

	if err != nil {
		notice.Error(m.notifier, err.Error())
	}
	return err
}

func (m *Manager) ClearSelection() {
	m.mu.Lock()
	m.selection = nil
	m.mu.Unlock()
}

// Upload sends the selected file. A file with the same name and type
// already listed for the model is refused without a request.
func (m *Manager) Upload(ctx context.Context) (models.ModelFile, error) {
	sel, ok := m.Selection()
	if !ok {
		notice.Warning(m.notifier, ErrNoSelection.Error())
		return models.ModelFile{}, ErrNoSelection
	}
	if m.listed(sel.Name, sel.FileType) {
		err := &ValidationError{File: sel.Name, FileType: sel.FileType, reason: ErrDuplicateFile}
		notice.Warning(m.notifier, err.Error())
		return models.ModelFile{}, err
	}

	content, err := os.Open(sel.Path)
	if err != nil {
		notice.Error(m.notifier, "Failed to upload file")
		return models.ModelFile{}, fmt.Errorf("open %s: %w", sel.Path, err)
	}
	defer content.Close()

	scoped, done, err := m.scope(ctx)
	if err != nil {
		return models.ModelFile{}, err
	}
	created, err := m.client.UploadModelFile(scoped, m.modelID, sel.FileType, sel.Name, content)
	done()
	if m.life.Err() != nil {
		return models.ModelFile{}, ErrClosed
	}
	if err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"model_id":  m.modelID,
			"file_name": sel.Name,
		}).Warn("Upload failed")
		notice.Error(m.notifier, "Failed to upload file")
		return models.ModelFile{}, fmt.Errorf("upload %s: %w", sel.Name, err)
	}

	m.ClearSelection()
	notice.Success(m.notifier, "File uploaded successfully")
	m.publish(events.ActionCreated, created.ID)
	m.refresh(ctx)
	return created, nil
}

// UploadFile selects path and uploads it in one step.
func (m *Manager) UploadFile(ctx context.Context, path string, fileType models.FileType) (models.ModelFile, error) {
	if err := m.Select(path, fileType); err != nil {
		return models.ModelFile{}, err
	}
	return m.Upload(ctx)
}

// Download saves file id into dir as filename and returns the path
// written. The content is streamed to a transient file first and moved
// into place only when complete. An existing file is never replaced; the
// name gets a " (n)" suffix instead. An empty filename uses the listed
// name.
func (m *Manager) Download(ctx context.Context, id int64, filename, dir string) (string, error) {
	if filename == "" {
		filename = m.fileName(id)
	}
	if dir == "" {
		dir = "."
	}

	scoped, done, err := m.scope(ctx)
	if err != nil {
		return "", err
	}
	defer done()

	target, err := m.download(scoped, id, dir, filepath.Base(filename))
	if err != nil {
		if m.life.Err() != nil {
			return "", ErrClosed
		}
		logger.Log.WithError(err).WithField("file_id", id).Warn("Download failed")
		if api.IsUnauthorized(err) {
			notice.Error(m.notifier, "Unauthorized")
		} else {
			notice.Error(m.notifier, "Download failed")
		}
		return "", err
	}
	return target, nil
}

func (m *Manager) download(ctx context.Context, id int64, dir, name string) (target string, err error) {
	body, err := m.client.DownloadModelFile(ctx, id)
	if err != nil {
		return "", fmt.Errorf("download file %d: %w", id, err)
	}
	defer body.Close()

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("download file %d: %w", id, err)
	}
	if err = tmp.Close(); err != nil {
		return "", err
	}
	return place(tmp.Name(), dir, name)
}

const maxNameSuffix = 1000

// place moves tmp to name in dir without replacing an existing file. A
// hard link claims the name atomically; filesystems without links fall
// back to a checked rename.
func place(tmp, dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for n := 0; n < maxNameSuffix; n++ {
		candidate := name
		if n > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		}
		target := filepath.Join(dir, candidate)

		err := os.Link(tmp, target)
		if err == nil {
			_ = os.Remove(tmp)
			return target, nil
		}
		if errors.Is(err, fs.ErrExist) {
			continue
		}

		if _, statErr := os.Lstat(target); statErr == nil {
			continue
		} else if !errors.Is(statErr, fs.ErrNotExist) {
			return "", statErr
		}
		if err := os.Rename(tmp, target); err != nil {
			return "", err
		}
		return target, nil
	}
	return "", fmt.Errorf("no free name for %s in %s", name, dir)
}

func (m *Manager) Delete(ctx context.Context, id int64) error {
	scoped, done, err := m.scope(ctx)
	if err != nil {
		return err
	}
	err = m.client.DeleteModelFile(scoped, id)
	done()
	if m.life.Err() != nil {
		return ErrClosed
	}
	if err != nil {
		logger.Log.WithError(err).WithField("file_id", id).Warn("Delete failed")
		notice.Error(m.notifier, "Failed to delete file")
		return fmt.Errorf("delete file %d: %w", id, err)
	}

	m.previewMu.Lock()
	delete(m.previews, id)
	m.previewMu.Unlock()

	notice.Success(m.notifier, "File deleted successfully")
	m.publish(events.ActionDeleted, id)
	m.refresh(ctx)
	return nil
}

// Preview returns the bytes of an image file. Each image is fetched at
// most once for the lifetime of the manager. Concurrent callers share one
// fetch, which runs on the manager's lifetime so a caller giving up does
// not fail the others.
func (m *Manager) Preview(ctx context.Context, id int64) ([]byte, error) {
	file, ok := m.find(id)
	if !ok || !IsImage(file) {
		return nil, ErrNotPreviewable
	}
	if m.life.Err() != nil {
		return nil, ErrClosed
	}
	if cached, hit := m.cachedPreview(id); hit {
		return cached, nil
	}

	result := m.fetches.DoChan(strconv.FormatInt(id, 10), func() (interface{}, error) {
		return m.fetchPreview(id)
	})
	select {
	case res := <-result:
		if m.life.Err() != nil {
			return nil, ErrClosed
		}
		if res.Err != nil {
			return nil, fmt.Errorf("preview file %d: %w", id, res.Err)
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		if m.life.Err() != nil {
			return nil, ErrClosed
		}
		return nil, ctx.Err()
	}
}

func (m *Manager) cachedPreview(id int64) ([]byte, bool) {
	m.previewMu.Lock()
	defer m.previewMu.Unlock()
	data, ok := m.previews[id]
	return data, ok
}

// fetchPreview downloads one image. An image over the limit is refused
// and not cached.
func (m *Manager) fetchPreview(id int64) ([]byte, error) {
	if cached, hit := m.cachedPreview(id); hit {
		return cached, nil
	}

	body, err := m.client.DownloadModelFile(m.life, id)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, m.previewLimit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > m.previewLimit {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrPreviewTooLarge, m.previewLimit)
	}

	m.previewMu.Lock()
	m.previews[id] = data
	m.previewMu.Unlock()
	return data, nil
}

// Previews fetches every listed image. Failures are logged and skipped.
func (m *Manager) Previews(ctx context.Context) map[int64][]byte {
	out := make(map[int64][]byte)
	for _, f := range m.Files() {
		if !IsImage(f) {
			continue
		}
		data, err := m.Preview(ctx, f.ID)
		if err != nil {
			logger.Log.WithError(err).WithField("file_id", f.ID).Warn("Preview unavailable")
			continue
		}
		out[f.ID] = data
	}
	return out
}

// Close cancels in-flight requests and drops their results.
func (m *Manager) Close() {
	m.cancel()
}

func (m *Manager) listed(name string, fileType models.FileType) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.files {
		if f.FileName == name && f.FileType == fileType {
			return true
		}
	}
	return false
}

func (m *Manager) find(id int64) (models.ModelFile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.files {
		if f.ID == id {
			return f, true
		}
	}
	return models.ModelFile{}, false
}

func (m *Manager) fileName(id int64) string {
	if f, ok := m.find(id); ok && f.FileName != "" {
		return f.FileName
	}
	return "file-" + strconv.FormatInt(id, 10)
}

func (m *Manager) refresh(ctx context.Context) {
	if err := m.Load(ctx); err != nil {
		logger.Log.WithError(err).WithField("model_id", m.modelID).Debug("Re-fetch after change failed")
	}
}

func (m *Manager) publish(action events.Action, id int64) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(events.Event{Resource: events.ResourceModelFile, Action: action, ID: id})
}

func (m *Manager) scope(ctx context.Context) (context.Context, func(), error) {
	if m.life.Err() != nil {
		return nil, nil, ErrClosed
	}
	scoped, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(m.life, cancel)
	return scoped, func() {
		stop()
		cancel()
	}, nil
}

package files_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/nexusforge/console/internal/testutils/backend"
	"github.com/nexusforge/console/pkg/api"
	"github.com/nexusforge/console/pkg/common/models"
	"github.com/nexusforge/console/pkg/events"
	"github.com/nexusforge/console/pkg/files"
	"github.com/nexusforge/console/pkg/notice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fixture struct {
	srv     *backend.Server
	client  *api.Client
	model   models.Model
	notices *notice.Recorder
	bus     *events.Bus
	manager *files.Manager
	dir     string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	srv := backend.New(t)
	user := srv.AddUser("Ada", "ada@example.com", "secret")
	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: srv.Token(t, user)})
	client := api.New(api.Options{BaseURL: srv.URL, Tokens: tokens})

	factory := srv.AddFactory("Alpha")
	algorithm := srv.AddAlgorithm(factory.ID, "resnet")
	model := srv.AddModel(algorithm.ID, "resnet-50", models.StageDevelopment)

	notices := &notice.Recorder{}
	bus := events.NewBus()
	manager := files.NewManager(client, model.ID, files.Deps{Notifier: notices, Bus: bus})
	t.Cleanup(manager.Close)

	return &fixture{srv: srv, client: client, model: model, notices: notices, bus: bus, manager: manager, dir: t.TempDir()}
}

func (f *fixture) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (f *fixture) uploadPath() string {
	return "/models/upload/" + strconv.FormatInt(f.model.ID, 10)
}

func TestUploadSameFileTwiceIsBlocked(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	path := f.writeFile(t, "weights.pt", "tensor")

	require.NoError(t, f.manager.Load(ctx))
	created, err := f.manager.UploadFile(ctx, path, models.FileTypeModelFile)
	require.NoError(t, err)
	assert.Equal(t, "weights.pt", created.FileName)
	require.Len(t, f.manager.Files(), 1)
	_, selected := f.manager.Selection()
	assert.False(t, selected)

	_, err = f.manager.UploadFile(ctx, path, models.FileTypeModelFile)
	assert.ErrorIs(t, err, files.ErrDuplicateFile)
	assert.Equal(t, 1, f.srv.Count(http.MethodPost, f.uploadPath()))

	last, _ := f.notices.Last()
	assert.Equal(t, notice.LevelWarning, last.Level)
	assert.Len(t, f.manager.Files(), 1)
}

func TestSelectRejectsWrongExtension(t *testing.T) {
	f := setup(t)
	good := f.writeFile(t, "data.zip", "zip")
	bad := f.writeFile(t, "data.tar", "tar")

	require.NoError(t, f.manager.Select(good, models.FileTypeDataset))
	_, selected := f.manager.Selection()
	require.True(t, selected)

	err := f.manager.Select(bad, models.FileTypeDataset)
	assert.ErrorIs(t, err, files.ErrExtensionNotAllowed)
	_, selected = f.manager.Selection()
	assert.False(t, selected, "a rejected file resets the selection")

	last, _ := f.notices.Last()
	assert.Equal(t, notice.LevelError, last.Level)
	assert.Empty(t, f.srv.Requests())
}

func TestUploadWithoutSelection(t *testing.T) {
	f := setup(t)

	_, err := f.manager.Upload(context.Background())
	assert.ErrorIs(t, err, files.ErrNoSelection)
	last, _ := f.notices.Last()
	assert.Equal(t, notice.Notice{Level: notice.LevelWarning, Message: "Select a file"}, last)
	assert.Empty(t, f.srv.Requests())
}

func TestUploadPublishesEvent(t *testing.T) {
	f := setup(t)
	var seen []events.Event
	f.bus.Subscribe(events.ResourceModelFile, func(e events.Event) { seen = append(seen, e) })

	created, err := f.manager.UploadFile(context.Background(), f.writeFile(t, "net.onnx", "onnx"), models.FileTypeModelFile)
	require.NoError(t, err)
	assert.Equal(t, []events.Event{{Resource: events.ResourceModelFile, Action: events.ActionCreated, ID: created.ID}}, seen)
}

func TestDownloadWritesFileAndLeavesNoTemp(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	stored := f.srv.AddFile(f.model.ID, "weights.pt", models.FileTypeModelFile, []byte("tensor-bytes"))
	require.NoError(t, f.manager.Load(ctx))

	out := t.TempDir()
	path, err := f.manager.Download(ctx, stored.ID, "", out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "weights.pt"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "tensor-bytes", string(content))

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDownloadKeepsExistingFile(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	stored := f.srv.AddFile(f.model.ID, "weights.pt", models.FileTypeModelFile, []byte("new"))
	require.NoError(t, f.manager.Load(ctx))

	out := t.TempDir()
	existing := filepath.Join(out, "weights.pt")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(out, "weights (1).pt"), []byte("older"), 0o644))

	path, err := f.manager.Download(ctx, stored.ID, "", out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "weights (2).pt"), path)

	content, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "old", string(content))
	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestDownloadUnauthorized(t *testing.T) {
	f := setup(t)
	stored := f.srv.AddFile(f.model.ID, "weights.pt", models.FileTypeModelFile, []byte("x"))
	f.srv.Fail(http.MethodGet, "/models/download/"+strconv.FormatInt(stored.ID, 10), http.StatusUnauthorized, "Not authenticated")

	out := t.TempDir()
	_, err := f.manager.Download(context.Background(), stored.ID, "weights.pt", out)
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))

	last, _ := f.notices.Last()
	assert.Equal(t, notice.Notice{Level: notice.LevelError, Message: "Unauthorized"}, last)
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownloadOtherFailure(t *testing.T) {
	f := setup(t)

	_, err := f.manager.Download(context.Background(), 12345, "missing.pt", t.TempDir())
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
	last, _ := f.notices.Last()
	assert.Equal(t, "Download failed", last.Message)
}

func TestDeleteRefetches(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.srv.AddFile(f.model.ID, "a.py", models.FileTypePythonCode, []byte("a"))
	f.srv.AddFile(f.model.ID, "b.py", models.FileTypePythonCode, []byte("b"))
	require.NoError(t, f.manager.Load(ctx))

	require.NoError(t, f.manager.Delete(ctx, a.ID))
	list := f.manager.Files()
	require.Len(t, list, 1)
	assert.Equal(t, "b.py", list[0].FileName)
	assert.Equal(t, 2, f.srv.Count(http.MethodGet, "/models/files/"+strconv.FormatInt(f.model.ID, 10)))
}

func TestPreviewFetchesEachImageOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	img := f.srv.AddFile(f.model.ID, "loss.png", models.FileTypeMetrics, []byte("\x89PNG"))
	csv := f.srv.AddFile(f.model.ID, "scores.csv", models.FileTypeMetrics, []byte("a,b"))
	require.NoError(t, f.manager.Load(ctx))

	data, err := f.manager.Preview(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), data)

	previews := f.manager.Previews(ctx)
	assert.Equal(t, map[int64][]byte{img.ID: []byte("\x89PNG")}, previews)
	assert.Equal(t, 1, f.srv.Count(http.MethodGet, "/models/download/"+strconv.FormatInt(img.ID, 10)))

	_, err = f.manager.Preview(ctx, csv.ID)
	assert.ErrorIs(t, err, files.ErrNotPreviewable)
}

func TestPreviewRefusesOversizedImage(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	big := f.srv.AddFile(f.model.ID, "big.png", models.FileTypeMetrics, []byte("0123456789"))
	small := f.srv.AddFile(f.model.ID, "small.png", models.FileTypeMetrics, []byte("0123"))

	m := files.NewManager(f.client, f.model.ID, files.Deps{PreviewLimit: 4})
	t.Cleanup(m.Close)
	require.NoError(t, m.Load(ctx))

	_, err := m.Preview(ctx, big.ID)
	assert.ErrorIs(t, err, files.ErrPreviewTooLarge)
	_, err = m.Preview(ctx, big.ID)
	assert.ErrorIs(t, err, files.ErrPreviewTooLarge)
	assert.Equal(t, 2, f.srv.Count(http.MethodGet, "/models/download/"+strconv.FormatInt(big.ID, 10)))

	data, err := m.Preview(ctx, small.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("0123"), data)
}

func TestPreviewSurvivesOtherCallerCancelling(t *testing.T) {
	f := setup(t)
	img := f.srv.AddFile(f.model.ID, "loss.png", models.FileTypeMetrics, []byte("\x89PNG"))
	require.NoError(t, f.manager.Load(context.Background()))

	path := "/models/download/" + strconv.FormatInt(img.ID, 10)
	release := f.srv.Hold(http.MethodGet, path)
	t.Cleanup(release)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := f.manager.Preview(firstCtx, img.ID)
		first <- err
	}()
	require.Eventually(t, func() bool { return f.srv.Count(http.MethodGet, path) == 1 }, 5*time.Second, 10*time.Millisecond)

	type outcome struct {
		data []byte
		err  error
	}
	second := make(chan outcome, 1)
	go func() {
		data, err := f.manager.Preview(context.Background(), img.ID)
		second <- outcome{data, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-first, context.Canceled)

	release()
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, []byte("\x89PNG"), got.data)
}

func TestClosedManagerRefusesWork(t *testing.T) {
	f := setup(t)
	f.manager.Close()

	assert.ErrorIs(t, f.manager.Load(context.Background()), files.ErrClosed)
	assert.ErrorIs(t, f.manager.Delete(context.Background(), 1), files.ErrClosed)
	assert.Empty(t, f.srv.Requests())
}

package views_test

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/nexusforge/console/internal/testutils/backend"
	"github.com/nexusforge/console/pkg/api"
	"github.com/nexusforge/console/pkg/common/models"
	"github.com/nexusforge/console/pkg/events"
	"github.com/nexusforge/console/pkg/notice"
	"github.com/nexusforge/console/pkg/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fixture struct {
	srv     *backend.Server
	client  *api.Client
	notices *notice.Recorder
	bus     *events.Bus
}

func setup(t *testing.T) *fixture {
	t.Helper()
	srv := backend.New(t)
	user := srv.AddUser("Ada", "ada@example.com", "secret")
	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: srv.Token(t, user), TokenType: "bearer"})

	return &fixture{
		srv:     srv,
		client:  api.New(api.Options{BaseURL: srv.URL, Tokens: tokens}),
		notices: &notice.Recorder{},
		bus:     events.NewBus(),
	}
}

func (f *fixture) deps() views.Deps {
	return views.Deps{Notifier: f.notices, Bus: f.bus}
}

func names[T views.Item](items []T) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ItemName())
	}
	return out
}

func TestCreateFactoryThenDuplicateIsBlocked(t *testing.T) {
	f := setup(t)
	view := views.NewFactoriesView(f.client, f.deps())
	ctx := context.Background()

	require.NoError(t, view.Load(ctx))
	assert.Empty(t, view.Items())

	created, err := view.Create(ctx, models.CreateFactoryRequest{Name: "Alpha", Description: "main plant"})
	require.NoError(t, err)
	assert.Equal(t, "Alpha", created.Name)
	assert.Equal(t, []string{"Alpha"}, names(view.Items()))
	assert.Equal(t, 1, f.srv.Count(http.MethodPost, "/factories"))

	_, err = view.Create(ctx, models.CreateFactoryRequest{Name: "  alpha "})
	require.Error(t, err)
	assert.True(t, views.IsValidationError(err))
	assert.ErrorIs(t, err, views.ErrDuplicateName)
	assert.Equal(t, 1, f.srv.Count(http.MethodPost, "/factories"), "duplicate must not reach the registry")

	last, _ := f.notices.Last()
	assert.Equal(t, notice.LevelError, last.Level)
	assert.Equal(t, []string{"Alpha"}, names(view.Items()))
}

func TestCreateRequiresName(t *testing.T) {
	f := setup(t)
	view := views.NewFactoriesView(f.client, f.deps())

	_, err := view.Create(context.Background(), models.CreateFactoryRequest{Name: "   "})
	assert.ErrorIs(t, err, views.ErrNameRequired)
	assert.Empty(t, f.srv.Requests())
}

func TestCreateIncludesNewItemExactlyOnce(t *testing.T) {
	f := setup(t)
	f.srv.AddFactory("Existing")
	view := views.NewFactoriesView(f.client, f.deps())
	ctx := context.Background()

	require.NoError(t, view.Load(ctx))
	_, err := view.Create(ctx, models.CreateFactoryRequest{Name: "Beta"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Existing", "Beta"}, names(view.Items()))
	assert.Equal(t, 2, f.srv.Count(http.MethodGet, "/factories"))
}

func TestDeleteSplicesWithoutRefetch(t *testing.T) {
	f := setup(t)
	a := f.srv.AddFactory("A")
	b := f.srv.AddFactory("B")
	c := f.srv.AddFactory("C")
	view := views.NewFactoriesView(f.client, f.deps())
	ctx := context.Background()

	require.NoError(t, view.Load(ctx))
	require.NoError(t, view.Delete(ctx, b.ID))

	assert.Equal(t, []string{"A", "C"}, names(view.Items()))
	_, found := view.Find(b.ID)
	assert.False(t, found)
	_, found = view.Find(a.ID)
	assert.True(t, found)
	_, found = view.Find(c.ID)
	assert.True(t, found)
	assert.Equal(t, 1, f.srv.Count(http.MethodGet, "/factories"))

	last, _ := f.notices.Last()
	assert.Equal(t, notice.Notice{Level: notice.LevelSuccess, Message: "Factory deleted successfully"}, last)
}

func TestDeleteFailureLeavesState(t *testing.T) {
	f := setup(t)
	a := f.srv.AddFactory("A")
	view := views.NewFactoriesView(f.client, f.deps())
	ctx := context.Background()
	require.NoError(t, view.Load(ctx))

	f.srv.Fail(http.MethodDelete, "/factories/"+strconv.FormatInt(a.ID, 10), http.StatusInternalServerError, "boom")
	err := view.Delete(ctx, a.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, api.StatusCode(err))

	assert.Equal(t, []string{"A"}, names(view.Items()))
	last, _ := f.notices.Last()
	assert.Equal(t, "Failed to delete factory", last.Message)
}

func TestLoadFailureKeepsPriorList(t *testing.T) {
	f := setup(t)
	f.srv.AddFactory("A")
	view := views.NewFactoriesView(f.client, f.deps())
	ctx := context.Background()
	require.NoError(t, view.Load(ctx))

	f.srv.Fail(http.MethodGet, "/factories", http.StatusBadGateway, "upstream")
	require.Error(t, view.Load(ctx))

	assert.Equal(t, []string{"A"}, names(view.Items()))
	last, _ := f.notices.Last()
	assert.Equal(t, notice.Notice{Level: notice.LevelError, Message: "Failed to load factories"}, last)
}

func TestFactoryChangesArePublished(t *testing.T) {
	f := setup(t)
	view := views.NewFactoriesView(f.client, f.deps())
	ctx := context.Background()

	var seen []events.Event
	f.bus.Subscribe(events.ResourceFactory, func(e events.Event) { seen = append(seen, e) })

	created, err := view.Create(ctx, models.CreateFactoryRequest{Name: "Alpha"})
	require.NoError(t, err)
	require.NoError(t, view.Delete(ctx, created.ID))

	assert.Equal(t, []events.Event{
		{Resource: events.ResourceFactory, Action: events.ActionCreated, ID: created.ID},
		{Resource: events.ResourceFactory, Action: events.ActionDeleted, ID: created.ID},
	}, seen)
}

func TestAlgorithmsAreScopedToFactory(t *testing.T) {
	f := setup(t)
	alpha := f.srv.AddFactory("Alpha")
	beta := f.srv.AddFactory("Beta")
	f.srv.AddAlgorithm(beta.ID, "resnet")
	view := views.NewAlgorithmsView(f.client, alpha.ID, f.deps())
	ctx := context.Background()

	require.NoError(t, view.Load(ctx))
	assert.Empty(t, view.Items())

	// Uniqueness is checked within the loaded list only.
	_, err := view.Create(ctx, models.CreateAlgorithmRequest{Name: "resnet"})
	require.NoError(t, err)
	assert.Equal(t, []string{"resnet"}, names(view.Items()))
	assert.Len(t, f.srv.Algorithms(), 2)
}

func TestAllScopeViewsAreReadOnly(t *testing.T) {
	f := setup(t)
	algorithms := views.NewAllAlgorithmsView(f.client, f.deps())
	modelsView := views.NewAllModelsView(f.client, f.deps())
	ctx := context.Background()

	assert.True(t, algorithms.ReadOnly())
	_, err := algorithms.Create(ctx, models.CreateAlgorithmRequest{Name: "x"})
	assert.ErrorIs(t, err, views.ErrReadOnly)
	assert.ErrorIs(t, algorithms.Delete(ctx, 1), views.ErrReadOnly)

	_, err = modelsView.Promote(ctx, 1)
	assert.ErrorIs(t, err, views.ErrReadOnly)
	_, err = modelsView.Update(ctx, 1, models.UpdateModelRequest{Name: "x"})
	assert.ErrorIs(t, err, views.ErrReadOnly)
	assert.Empty(t, f.srv.Requests())

	require.NoError(t, modelsView.Load(ctx))
	assert.Empty(t, modelsView.Items())
}

func TestModelLifecycle(t *testing.T) {
	f := setup(t)
	factory := f.srv.AddFactory("Alpha")
	algorithm := f.srv.AddAlgorithm(factory.ID, "resnet")
	f.srv.AddModel(algorithm.ID, "baseline", models.StageProduction)
	view := views.NewModelsView(f.client, algorithm.ID, f.deps())
	ctx := context.Background()
	require.NoError(t, view.Load(ctx))

	created, err := view.Create(ctx, models.CreateModelRequest{Name: "resnet-50", VersionNumber: 2, Tags: "vision, prod"})
	require.NoError(t, err)
	assert.Equal(t, models.StageDevelopment, created.Stage)
	assert.Equal(t, []string{"vision", "prod"}, created.TagList())

	_, err = view.Update(ctx, created.ID, models.UpdateModelRequest{Name: "BASELINE"})
	assert.ErrorIs(t, err, views.ErrDuplicateName)
	assert.Equal(t, 0, f.srv.Count(http.MethodPut, ""))

	updated, err := view.Update(ctx, created.ID, models.UpdateModelRequest{Name: "resnet-50", Notes: "line one\nline two"})
	require.NoError(t, err, "keeping its own name is not a duplicate")
	assert.Equal(t, []string{"line one", "line two"}, updated.NoteList())

	promoted, err := view.Promote(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageStaging, promoted.Stage)
	item, _ := view.Find(created.ID)
	assert.Equal(t, models.StageStaging, item.Stage)
	last, _ := f.notices.Last()
	assert.Equal(t, "Model moved to staging", last.Message)

	_, err = view.Rollback(ctx, created.ID)
	require.NoError(t, err)
	_, err = view.Rollback(ctx, created.ID)
	require.Error(t, err)
	last, _ = f.notices.Last()
	assert.Equal(t, "Failed to rollback model", last.Message)
}

func TestModelCreateRejectsUnknownStage(t *testing.T) {
	f := setup(t)
	factory := f.srv.AddFactory("Alpha")
	algorithm := f.srv.AddAlgorithm(factory.ID, "resnet")
	view := views.NewModelsView(f.client, algorithm.ID, f.deps())

	_, err := view.Create(context.Background(), models.CreateModelRequest{Name: "m", Stage: "archived"})
	assert.ErrorIs(t, err, views.ErrInvalidStage)
	assert.Equal(t, 0, f.srv.Count(http.MethodPost, ""))
}

func TestCloseDropsLateResults(t *testing.T) {
	f := setup(t)
	f.srv.AddFactory("A")
	view := views.NewFactoriesView(f.client, f.deps())
	release := f.srv.Hold(http.MethodGet, "/factories")
	defer release()

	result := make(chan error, 1)
	go func() { result <- view.Load(context.Background()) }()

	require.Eventually(t, func() bool {
		return f.srv.Count(http.MethodGet, "/factories") == 1
	}, 5*time.Second, 10*time.Millisecond)
	view.Close()

	select {
	case err := <-result:
		assert.True(t, errors.Is(err, views.ErrClosed))
	case <-time.After(5 * time.Second):
		t.Fatal("load did not return after close")
	}
	assert.False(t, view.Loaded())
	assert.Empty(t, view.Items())
	assert.Empty(t, f.notices.Notices())

	assert.ErrorIs(t, view.Load(context.Background()), views.ErrClosed)
}

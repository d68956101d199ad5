package dashboard_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/nexusforge/console/internal/testutils/backend"
	"github.com/nexusforge/console/pkg/api"
	"github.com/nexusforge/console/pkg/common/models"
	"github.com/nexusforge/console/pkg/dashboard"
	"github.com/nexusforge/console/pkg/notice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func setup(t *testing.T) (*backend.Server, *api.Client) {
	t.Helper()
	srv := backend.New(t)
	user := srv.AddUser("Ada", "ada@example.com", "secret")
	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: srv.Token(t, user)})
	return srv, api.New(api.Options{BaseURL: srv.URL, Tokens: tokens})
}

func TestOverviewAggregatesPanels(t *testing.T) {
	srv, client := setup(t)
	factory := srv.AddFactory("Alpha")
	algorithm := srv.AddAlgorithm(factory.ID, "resnet")
	model := srv.AddModel(algorithm.ID, "resnet-50", models.StageDevelopment)
	for i := 0; i < 7; i++ {
		srv.AddFile(model.ID, fmt.Sprintf("file-%d.py", i), models.FileTypePythonCode, []byte("x"))
	}

	board := dashboard.New(client, nil)
	overview, err := board.Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.DashboardStats{Factories: 1, Algorithms: 1, Models: 1}, overview.Stats)
	assert.Equal(t, []models.ModelsPerFactory{{Factory: "Alpha", Count: 1}}, overview.PerFactory)
	assert.Equal(t, []models.ModelsPerAlgorithm{{Algorithm: "resnet", Count: 1}}, overview.PerAlgorithm)
	require.Len(t, overview.RecentFiles, dashboard.RecentUploads)
	assert.Equal(t, "file-6.py", overview.RecentFiles[0].FileName)

	current, ok := board.Current()
	require.True(t, ok)
	assert.Equal(t, overview.Stats, current.Stats)
}

func TestOverviewFailureKeepsPrevious(t *testing.T) {
	srv, client := setup(t)
	srv.AddFactory("Alpha")
	notices := &notice.Recorder{}
	board := dashboard.New(client, notices)

	first, err := board.Overview(context.Background())
	require.NoError(t, err)

	srv.AddFactory("Beta")
	srv.Fail(http.MethodGet, "/dashboard/models-per-algorithm", http.StatusInternalServerError, "boom")
	_, err = board.Overview(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, api.StatusCode(err))

	current, ok := board.Current()
	require.True(t, ok)
	assert.Equal(t, first.Stats, current.Stats)
	last, _ := notices.Last()
	assert.Equal(t, "Failed to load dashboard", last.Message)
}

func TestOverviewBeforeFirstLoad(t *testing.T) {
	_, client := setup(t)
	_, ok := dashboard.New(client, nil).Current()
	assert.False(t, ok)
}

package api_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/nexusforge/console/internal/testutils/backend"
	"github.com/nexusforge/console/pkg/api"
	"github.com/nexusforge/console/pkg/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type staticTokens struct {
	token *oauth2.Token
}

func (s *staticTokens) Token() (*oauth2.Token, error) {
	if s.token == nil {
		return nil, errors.New("logged out")
	}
	return s.token, nil
}

func newClient(t *testing.T) (*api.Client, *backend.Server, *staticTokens) {
	t.Helper()
	srv := backend.New(t)
	tokens := &staticTokens{}
	client := api.New(api.Options{BaseURL: srv.URL + "/", Tokens: tokens})
	return client, srv, tokens
}

func login(t *testing.T, client *api.Client, srv *backend.Server, tokens *staticTokens) {
	t.Helper()
	srv.AddUser("Ada", "ada@example.com", "secret")
	resp, err := client.Login(context.Background(), models.LoginRequest{Email: "ada@example.com", Password: "secret"})
	require.NoError(t, err)
	tokens.token = &oauth2.Token{AccessToken: resp.AccessToken, TokenType: resp.TokenType}
}

func TestAuthorizationOnlyWhenLoggedIn(t *testing.T) {
	client, srv, tokens := newClient(t)
	ctx := context.Background()

	_, err := client.ListFactories(ctx)
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))

	login(t, client, srv, tokens)
	_, err = client.ListFactories(ctx)
	require.NoError(t, err)

	reqs := srv.Requests()
	require.Len(t, reqs, 3)
	assert.Empty(t, reqs[0].Authorization)
	assert.Empty(t, reqs[1].Authorization, "login itself goes out before the token exists")
	assert.Equal(t, "Bearer "+tokens.token.AccessToken, reqs[2].Authorization)
}

func TestEveryRequestCarriesFreshRequestID(t *testing.T) {
	client, srv, _ := newClient(t)
	ctx := context.Background()

	_, _ = client.ListFactories(ctx)
	_, _ = client.ListFactories(ctx)

	reqs := srv.Requests()
	require.Len(t, reqs, 2)
	assert.NotEmpty(t, reqs[0].RequestID)
	assert.NotEqual(t, reqs[0].RequestID, reqs[1].RequestID)
}

func TestErrorCarriesBackendDetail(t *testing.T) {
	client, srv, tokens := newClient(t)
	login(t, client, srv, tokens)

	err := client.DeleteFactory(context.Background(), 999)
	require.Error(t, err)

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, http.MethodDelete, apiErr.Method)
	assert.Equal(t, "/factories/999", apiErr.Path)
	assert.Equal(t, "Factory not found", apiErr.Detail)
	assert.True(t, api.IsNotFound(err))
	assert.Contains(t, err.Error(), "Factory not found")
}

func TestHierarchyRoundTrip(t *testing.T) {
	client, srv, tokens := newClient(t)
	login(t, client, srv, tokens)
	ctx := context.Background()

	factory, err := client.CreateFactory(ctx, models.CreateFactoryRequest{Name: "Alpha"})
	require.NoError(t, err)
	algorithm, err := client.CreateAlgorithm(ctx, factory.ID, models.CreateAlgorithmRequest{Name: "resnet"})
	require.NoError(t, err)
	model, err := client.CreateModel(ctx, algorithm.ID, models.CreateModelRequest{
		Name: "resnet-50", VersionNumber: 3, Stage: models.StageDevelopment, Tags: "vision,prod",
	})
	require.NoError(t, err)
	assert.Equal(t, algorithm.ID, model.AlgorithmID)
	assert.False(t, model.CreatedAt.IsZero())

	algorithms, err := client.ListFactoryAlgorithms(ctx, factory.ID)
	require.NoError(t, err)
	require.Len(t, algorithms, 1)
	assert.Equal(t, "resnet", algorithms[0].Name)

	promoted, err := client.PromoteModel(ctx, model.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageStaging, promoted.Stage)

	rolled, err := client.RollbackModel(ctx, model.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageDevelopment, rolled.Stage)

	_, err = client.RollbackModel(ctx, model.ID)
	assert.Equal(t, http.StatusBadRequest, api.StatusCode(err))

	updated, err := client.UpdateModel(ctx, model.ID, models.UpdateModelRequest{Name: "resnet-50b", Notes: "retrained"})
	require.NoError(t, err)
	assert.Equal(t, "resnet-50b", updated.Name)

	all, err := client.ListModels(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, client.DeleteFactory(ctx, factory.ID))
	all, err = client.ListModels(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUploadAndDownloadFile(t *testing.T) {
	client, srv, tokens := newClient(t)
	login(t, client, srv, tokens)
	ctx := context.Background()

	factory := srv.AddFactory("Alpha")
	algorithm := srv.AddAlgorithm(factory.ID, "resnet")
	model := srv.AddModel(algorithm.ID, "resnet-50", models.StageDevelopment)

	created, err := client.UploadModelFile(ctx, model.ID, models.FileTypeModelFile, "weights.pt", strings.NewReader("tensor-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "weights.pt", created.FileName)
	assert.Equal(t, models.FileTypeModelFile, created.FileType)
	assert.Equal(t, int64(len("tensor-bytes")), created.FileSize)
	assert.Equal(t, 1, srv.Count(http.MethodPost, "/models/upload/"+itoa(model.ID)))
	assert.Contains(t, srv.Requests()[len(srv.Requests())-1].Query, "file_type=model_file")

	body, err := client.DownloadModelFile(ctx, created.ID)
	require.NoError(t, err)
	content, err := io.ReadAll(body)
	require.NoError(t, body.Close())
	require.NoError(t, err)
	assert.Equal(t, "tensor-bytes", string(content))

	recent, err := client.RecentFiles(ctx)
	require.NoError(t, err)
	require.Len(t, recent, 1)

	require.NoError(t, client.DeleteModelFile(ctx, created.ID))
	_, err = client.DownloadModelFile(ctx, created.ID)
	assert.True(t, api.IsNotFound(err))
}

func TestDownloadUnauthorized(t *testing.T) {
	client, _, _ := newClient(t)

	_, err := client.DownloadModelFile(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
}

func TestDashboardEndpoints(t *testing.T) {
	client, srv, tokens := newClient(t)
	login(t, client, srv, tokens)
	ctx := context.Background()

	factory := srv.AddFactory("Alpha")
	algorithm := srv.AddAlgorithm(factory.ID, "resnet")
	srv.AddModel(algorithm.ID, "m1", models.StageDevelopment)
	srv.AddModel(algorithm.ID, "m2", models.StageProduction)

	stats, err := client.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DashboardStats{Factories: 1, Algorithms: 1, Models: 2}, stats)

	perFactory, err := client.ModelsPerFactory(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.ModelsPerFactory{{Factory: "Alpha", Count: 2}}, perFactory)

	perAlgorithm, err := client.ModelsPerAlgorithm(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.ModelsPerAlgorithm{{Algorithm: "resnet", Count: 2}}, perAlgorithm)
}

func TestSignupWithoutToken(t *testing.T) {
	client, _, _ := newClient(t)

	resp, err := client.Signup(context.Background(), models.SignupRequest{Name: "Ada", Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Empty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.Message)

	_, err = client.Signup(context.Background(), models.SignupRequest{Name: "Ada", Email: "ADA@example.com", Password: "pw"})
	assert.Equal(t, http.StatusBadRequest, api.StatusCode(err))
}

func TestStatusCodeOfTransportError(t *testing.T) {
	client := api.New(api.Options{BaseURL: "http://127.0.0.1:1"})
	_, err := client.ListFactories(context.Background())
	require.Error(t, err)
	assert.Zero(t, api.StatusCode(err))
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nexusforge/console/pkg/common/models"
)

func (c *Client) ListModels(ctx context.Context) ([]models.Model, error) {
	var list []models.Model
	if err := c.do(ctx, http.MethodGet, "/models/all", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) ListAlgorithmModels(ctx context.Context, algorithmID int64) ([]models.Model, error) {
	var list []models.Model
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/models/algorithm/%d", algorithmID), nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) CreateModel(ctx context.Context, algorithmID int64, req models.CreateModelRequest) (models.Model, error) {
	var model models.Model
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/models/%d", algorithmID), req, &model)
	return model, err
}

func (c *Client) UpdateModel(ctx context.Context, id int64, req models.UpdateModelRequest) (models.Model, error) {
	var model models.Model
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/models/%d", id), req, &model)
	return model, err
}

func (c *Client) DeleteModel(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/models/%d", id), nil, nil)
}

// PromoteModel and RollbackModel move the model between stages; the
// transition rules live in the registry.
func (c *Client) PromoteModel(ctx context.Context, id int64) (models.Model, error) {
	var model models.Model
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/models/%d/promote", id), nil, &model)
	return model, err
}

func (c *Client) RollbackModel(ctx context.Context, id int64) (models.Model, error) {
	var model models.Model
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/models/%d/rollback", id), nil, &model)
	return model, err
}

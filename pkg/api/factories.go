package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nexusforge/console/pkg/common/models"
)

func (c *Client) ListFactories(ctx context.Context) ([]models.Factory, error) {
	var factories []models.Factory
	if err := c.do(ctx, http.MethodGet, "/factories", nil, &factories); err != nil {
		return nil, err
	}
	return factories, nil
}

func (c *Client) CreateFactory(ctx context.Context, req models.CreateFactoryRequest) (models.Factory, error) {
	var factory models.Factory
	err := c.do(ctx, http.MethodPost, "/factories", req, &factory)
	return factory, err
}

func (c *Client) DeleteFactory(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/factories/%d", id), nil, nil)
}

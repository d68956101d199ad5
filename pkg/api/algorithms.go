package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nexusforge/console/pkg/common/models"
)

func (c *Client) ListAlgorithms(ctx context.Context) ([]models.Algorithm, error) {
	var algorithms []models.Algorithm
	if err := c.do(ctx, http.MethodGet, "/algorithms", nil, &algorithms); err != nil {
		return nil, err
	}
	return algorithms, nil
}

func (c *Client) ListFactoryAlgorithms(ctx context.Context, factoryID int64) ([]models.Algorithm, error) {
	var algorithms []models.Algorithm
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/algorithms/factory/%d", factoryID), nil, &algorithms); err != nil {
		return nil, err
	}
	return algorithms, nil
}

func (c *Client) CreateAlgorithm(ctx context.Context, factoryID int64, req models.CreateAlgorithmRequest) (models.Algorithm, error) {
	var algorithm models.Algorithm
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/algorithms/%d", factoryID), req, &algorithm)
	return algorithm, err
}

func (c *Client) DeleteAlgorithm(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/algorithms/%d", id), nil, nil)
}

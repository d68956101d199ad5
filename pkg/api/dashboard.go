package api

import (
	"context"
	"net/http"

	"github.com/nexusforge/console/pkg/common/models"
)

func (c *Client) DashboardStats(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	err := c.do(ctx, http.MethodGet, "/dashboard/stats", nil, &stats)
	return stats, err
}

func (c *Client) ModelsPerFactory(ctx context.Context) ([]models.ModelsPerFactory, error) {
	var rows []models.ModelsPerFactory
	if err := c.do(ctx, http.MethodGet, "/dashboard/models-per-factory", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) ModelsPerAlgorithm(ctx context.Context) ([]models.ModelsPerAlgorithm, error) {
	var rows []models.ModelsPerAlgorithm
	if err := c.do(ctx, http.MethodGet, "/dashboard/models-per-algorithm", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/nexusforge/console/pkg/common/models"
)

func (c *Client) ListModelFiles(ctx context.Context, modelID int64) ([]models.ModelFile, error) {
	var files []models.ModelFile
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/models/files/%d", modelID), nil, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (c *Client) RecentFiles(ctx context.Context) ([]models.ModelFile, error) {
	var files []models.ModelFile
	if err := c.do(ctx, http.MethodGet, "/models/recent-files", nil, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// UploadModelFile streams content as the multipart field "file".
func (c *Client) UploadModelFile(ctx context.Context, modelID int64, fileType models.FileType, fileName string, content io.Reader) (models.ModelFile, error) {
	path := fmt.Sprintf("/models/upload/%d", modelID)

	var (
		created models.ModelFile
		failure errorBody
	)
	resp, err := c.request(ctx).
		SetQueryParam("file_type", string(fileType)).
		SetFileReader("file", fileName, content).
		SetResult(&created).
		SetError(&failure).
		Post(path)
	if err != nil {
		return models.ModelFile{}, fmt.Errorf("%s %s: %w", http.MethodPost, path, err)
	}
	if resp.IsError() {
		return models.ModelFile{}, newError(http.MethodPost, path, resp.StatusCode(), failure, resp.Body())
	}
	return created, nil
}

// DownloadModelFile returns the raw artifact stream. The caller closes it.
func (c *Client) DownloadModelFile(ctx context.Context, fileID int64) (io.ReadCloser, error) {
	path := fmt.Sprintf("/models/download/%d", fileID)

	resp, err := c.request(ctx).
		SetHeader("Accept", "*/*").
		SetDoNotParseResponse(true).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", http.MethodGet, path, err)
	}

	body := resp.RawBody()
	if resp.IsError() {
		defer body.Close()
		raw, _ := io.ReadAll(io.LimitReader(body, 4096))
		return nil, newError(http.MethodGet, path, resp.StatusCode(), decodeErrorBody(raw), raw)
	}
	return body, nil
}

func (c *Client) DeleteModelFile(ctx context.Context, fileID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/models/file/%d", fileID), nil, nil)
}

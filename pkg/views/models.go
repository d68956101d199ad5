package views

import (
	"context"
	"fmt"

	"github.com/nexusforge/console/pkg/common/logger"
	"github.com/nexusforge/console/pkg/common/models"
	"github.com/nexusforge/console/pkg/events"
	"github.com/nexusforge/console/pkg/notice"
)

type ModelAPI interface {
	ListModels(ctx context.Context) ([]models.Model, error)
	ListAlgorithmModels(ctx context.Context, algorithmID int64) ([]models.Model, error)
	CreateModel(ctx context.Context, algorithmID int64, req models.CreateModelRequest) (models.Model, error)
	UpdateModel(ctx context.Context, id int64, req models.UpdateModelRequest) (models.Model, error)
	DeleteModel(ctx context.Context, id int64) error
	PromoteModel(ctx context.Context, id int64) (models.Model, error)
	RollbackModel(ctx context.Context, id int64) (models.Model, error)
}

// ModelsView adds in-place edits and stage transitions to the model list.
type ModelsView struct {
	*ListView[models.Model, models.CreateModelRequest]
	client ModelAPI
}

func NewModelsView(client ModelAPI, algorithmID int64, deps Deps) *ModelsView {
	list := newListView(ModelKind, operations[models.Model, models.CreateModelRequest]{
		list: func(ctx context.Context) ([]models.Model, error) {
			return client.ListAlgorithmModels(ctx, algorithmID)
		},
		create: func(ctx context.Context, req models.CreateModelRequest) (models.Model, error) {
			req.Stage, _ = models.ParseStage(string(req.Stage))
			return client.CreateModel(ctx, algorithmID, req)
		},
		remove: client.DeleteModel,
		check:  checkModel,
	}, deps)
	return &ModelsView{ListView: list, client: client}
}

// NewAllModelsView lists every model across algorithms. It is read-only.
func NewAllModelsView(client ModelAPI, deps Deps) *ModelsView {
	list := newListView(ModelKind, operations[models.Model, models.CreateModelRequest]{
		list: client.ListModels,
	}, deps)
	return &ModelsView{ListView: list, client: client}
}

func checkModel(req models.CreateModelRequest) error {
	if _, err := models.ParseStage(string(req.Stage)); err != nil {
		return &ValidationError{Subject: "Model", Field: "stage", Value: string(req.Stage), reason: ErrInvalidStage}
	}
	return nil
}

// Update edits a model in place. The name must stay unique among the
// other models of the view.
func (v *ModelsView) Update(ctx context.Context, id int64, req models.UpdateModelRequest) (models.Model, error) {
	if v.ReadOnly() {
		return models.Model{}, ErrReadOnly
	}
	if err := v.validate(req.Name, id); err != nil {
		return models.Model{}, err
	}
	return v.mutate(ctx, id, "update", "Model updated successfully", func(ctx context.Context) (models.Model, error) {
		return v.client.UpdateModel(ctx, id, req)
	})
}

func (v *ModelsView) Promote(ctx context.Context, id int64) (models.Model, error) {
	if v.ReadOnly() {
		return models.Model{}, ErrReadOnly
	}
	return v.mutate(ctx, id, "promote", "", func(ctx context.Context) (models.Model, error) {
		return v.client.PromoteModel(ctx, id)
	})
}

func (v *ModelsView) Rollback(ctx context.Context, id int64) (models.Model, error) {
	if v.ReadOnly() {
		return models.Model{}, ErrReadOnly
	}
	return v.mutate(ctx, id, "rollback", "", func(ctx context.Context) (models.Model, error) {
		return v.client.RollbackModel(ctx, id)
	})
}

// mutate runs one model change and re-fetches on success. An empty
// success message reports the model's resulting stage.
func (v *ModelsView) mutate(ctx context.Context, id int64, verb, success string, call func(context.Context) (models.Model, error)) (models.Model, error) {
	scoped, done, err := v.scope(ctx)
	if err != nil {
		return models.Model{}, err
	}
	updated, err := call(scoped)
	done()
	if v.life.Err() != nil {
		return models.Model{}, ErrClosed
	}
	if err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"model_id": id,
			"action":   verb,
		}).Warn("Model request failed")
		notice.Error(v.notifier, fmt.Sprintf("Failed to %s model", verb))
		return models.Model{}, fmt.Errorf("%s model %d: %w", verb, id, err)
	}

	if success == "" {
		success = fmt.Sprintf("Model moved to %s", updated.Stage)
	}
	notice.Success(v.notifier, success)
	v.publish(events.ActionUpdated, id)
	v.refresh(ctx)
	return updated, nil
}

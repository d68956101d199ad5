package views

import (
	"context"

	"github.com/nexusforge/console/pkg/common/models"
	"github.com/nexusforge/console/pkg/events"
)

type FactoryAPI interface {
	ListFactories(ctx context.Context) ([]models.Factory, error)
	CreateFactory(ctx context.Context, req models.CreateFactoryRequest) (models.Factory, error)
	DeleteFactory(ctx context.Context, id int64) error
}

type AlgorithmAPI interface {
	ListAlgorithms(ctx context.Context) ([]models.Algorithm, error)
	ListFactoryAlgorithms(ctx context.Context, factoryID int64) ([]models.Algorithm, error)
	CreateAlgorithm(ctx context.Context, factoryID int64, req models.CreateAlgorithmRequest) (models.Algorithm, error)
	DeleteAlgorithm(ctx context.Context, id int64) error
}

var (
	FactoryKind   = Kind{Singular: "factory", Plural: "factories", Resource: events.ResourceFactory}
	AlgorithmKind = Kind{Singular: "algorithm", Plural: "algorithms", Resource: events.ResourceAlgorithm}
	ModelKind     = Kind{Singular: "model", Plural: "models", Resource: events.ResourceModel}
)

type (
	FactoriesView  = ListView[models.Factory, models.CreateFactoryRequest]
	AlgorithmsView = ListView[models.Algorithm, models.CreateAlgorithmRequest]
)

func NewFactoriesView(client FactoryAPI, deps Deps) *FactoriesView {
	return newListView(FactoryKind, operations[models.Factory, models.CreateFactoryRequest]{
		list:   client.ListFactories,
		create: client.CreateFactory,
		remove: client.DeleteFactory,
	}, deps)
}

// NewAlgorithmsView lists the algorithms of one factory.
func NewAlgorithmsView(client AlgorithmAPI, factoryID int64, deps Deps) *AlgorithmsView {
	return newListView(AlgorithmKind, operations[models.Algorithm, models.CreateAlgorithmRequest]{
		list: func(ctx context.Context) ([]models.Algorithm, error) {
			return client.ListFactoryAlgorithms(ctx, factoryID)
		},
		create: func(ctx context.Context, req models.CreateAlgorithmRequest) (models.Algorithm, error) {
			return client.CreateAlgorithm(ctx, factoryID, req)
		},
		remove: client.DeleteAlgorithm,
	}, deps)
}

// NewAllAlgorithmsView lists every algorithm. It is read-only.
func NewAllAlgorithmsView(client AlgorithmAPI, deps Deps) *AlgorithmsView {
	return newListView(AlgorithmKind, operations[models.Algorithm, models.CreateAlgorithmRequest]{
		list: client.ListAlgorithms,
	}, deps)
}

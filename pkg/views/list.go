// Package views holds the resource list screens: factories, algorithms and
// models. Each view loads its collection from the registry, validates
// input before submitting it, and re-fetches after every change.
package views

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/nexusforge/console/pkg/common/logger"
	"github.com/nexusforge/console/pkg/events"
	"github.com/nexusforge/console/pkg/notice"
)

type Item interface {
	ItemID() int64
	ItemName() string
}

type Request interface {
	RequestName() string
}

// Kind names the resource a view shows, for notices and events.
type Kind struct {
	Singular string
	Plural   string
	Resource events.Resource
}

func (k Kind) title() string {
	if k.Singular == "" {
		return ""
	}
	return strings.ToUpper(k.Singular[:1]) + k.Singular[1:]
}

type Deps struct {
	Notifier notice.Notifier
	// Bus receives an event after every successful create or delete. May
	// be nil.
	Bus *events.Bus
}

// operations binds a view to its endpoints. A nil create or remove makes
// the view read-only.
type operations[T Item, C Request] struct {
	list   func(context.Context) ([]T, error)
	create func(context.Context, C) (T, error)
	remove func(context.Context, int64) error
	check  func(C) error
}

type ListView[T Item, C Request] struct {
	kind     Kind
	ops      operations[T, C]
	notifier notice.Notifier
	bus      *events.Bus

	life   context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	items  []T
	loaded bool
}

func newListView[T Item, C Request](kind Kind, ops operations[T, C], deps Deps) *ListView[T, C] {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notice.Discard
	}
	life, cancel := context.WithCancel(context.Background())
	return &ListView[T, C]{
		kind:     kind,
		ops:      ops,
		notifier: notifier,
		bus:      deps.Bus,
		life:     life,
		cancel:   cancel,
	}
}

func (v *ListView[T, C]) Kind() Kind { return v.kind }

func (v *ListView[T, C]) ReadOnly() bool {
	return v.ops.create == nil || v.ops.remove == nil
}

// Items returns the loaded collection in server order.
func (v *ListView[T, C]) Items() []T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]T(nil), v.items...)
}

func (v *ListView[T, C]) Loaded() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loaded
}

func (v *ListView[T, C]) Find(id int64) (T, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, item := range v.items {
		if item.ItemID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Load replaces the collection with the registry's. On failure the
// previous collection is kept.
func (v *ListView[T, C]) Load(ctx context.Context) error {
	ctx, done, err := v.scope(ctx)
	if err != nil {
		return err
	}
	defer done()

	items, err := v.ops.list(ctx)
	if v.life.Err() != nil {
		return ErrClosed
	}
	if err != nil {
		logger.Log.WithError(err).WithField("resource", v.kind.Resource).Warn("List request failed")
		notice.Error(v.notifier, "Failed to load "+v.kind.Plural)
		return fmt.Errorf("load %s: %w", v.kind.Plural, err)
	}
	if items == nil {
		items = []T{}
	}

	v.mu.Lock()
	v.items = items
	v.loaded = true
	v.mu.Unlock()
	return nil
}

// Create validates req against the loaded collection, submits it, then
// re-fetches. Nothing is sent when validation fails.
func (v *ListView[T, C]) Create(ctx context.Context, req C) (T, error) {
	var zero T
	if v.ops.create == nil {
		return zero, ErrReadOnly
	}
	if err := v.validate(req.RequestName(), 0); err != nil {
		return zero, err
	}
	if v.ops.check != nil {
		if err := v.ops.check(req); err != nil {
			notice.Error(v.notifier, err.Error())
			return zero, err
		}
	}

	scoped, done, err := v.scope(ctx)
	if err != nil {
		return zero, err
	}
	created, err := v.ops.create(scoped, req)
	done()
	if v.life.Err() != nil {
		return zero, ErrClosed
	}
	if err != nil {
		logger.Log.WithError(err).WithField("resource", v.kind.Resource).Warn("Create request failed")
		notice.Error(v.notifier, "Failed to create "+v.kind.Singular)
		return zero, fmt.Errorf("create %s: %w", v.kind.Singular, err)
	}

	notice.Success(v.notifier, v.kind.title()+" created successfully")
	v.publish(events.ActionCreated, created.ItemID())
	v.refresh(ctx)
	return created, nil
}

// Delete removes id on the registry and then from the local collection
// without re-fetching.
func (v *ListView[T, C]) Delete(ctx context.Context, id int64) error {
	if v.ops.remove == nil {
		return ErrReadOnly
	}

	scoped, done, err := v.scope(ctx)
	if err != nil {
		return err
	}
	err = v.ops.remove(scoped, id)
	done()
	if v.life.Err() != nil {
		return ErrClosed
	}
	if err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"resource": v.kind.Resource,
			"id":       id,
		}).Warn("Delete request failed")
		notice.Error(v.notifier, "Failed to delete "+v.kind.Singular)
		return fmt.Errorf("delete %s %d: %w", v.kind.Singular, id, err)
	}

	v.mu.Lock()
	kept := make([]T, 0, len(v.items))
	for _, item := range v.items {
		if item.ItemID() != id {
			kept = append(kept, item)
		}
	}
	v.items = kept
	v.mu.Unlock()

	notice.Success(v.notifier, v.kind.title()+" deleted successfully")
	v.publish(events.ActionDeleted, id)
	return nil
}

// Close cancels in-flight requests. Results that arrive afterwards are
// dropped and every later call returns ErrClosed.
func (v *ListView[T, C]) Close() {
	v.cancel()
}

// validate runs the presence and case-insensitive uniqueness checks. The
// item with id exclude is skipped, for renames.
func (v *ListView[T, C]) validate(name string, exclude int64) error {
	trimmed := strings.TrimSpace(name)
	var err error
	if trimmed == "" {
		err = &ValidationError{Subject: v.kind.title(), Field: "name", reason: ErrNameRequired}
	} else {
		v.mu.RLock()
		for _, item := range v.items {
			if item.ItemID() != exclude && strings.EqualFold(strings.TrimSpace(item.ItemName()), trimmed) {
				err = &ValidationError{Subject: v.kind.title(), Field: "name", Value: trimmed, reason: ErrDuplicateName}
				break
			}
		}
		v.mu.RUnlock()
	}

	if err != nil {
		notice.Error(v.notifier, err.Error())
	}
	return err
}

func (v *ListView[T, C]) refresh(ctx context.Context) {
	if err := v.Load(ctx); err != nil {
		logger.Log.WithError(err).WithField("resource", v.kind.Resource).Debug("Re-fetch after change failed")
	}
}

func (v *ListView[T, C]) publish(action events.Action, id int64) {
	if v.bus == nil {
		return
	}
	v.bus.Publish(events.Event{Resource: v.kind.Resource, Action: action, ID: id})
}

// scope derives a context that ends with either ctx or the view.
func (v *ListView[T, C]) scope(ctx context.Context) (context.Context, func(), error) {
	if v.life.Err() != nil {
		return nil, nil, ErrClosed
	}
	scoped, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(v.life, cancel)
	return scoped, func() {
		stop()
		cancel()
	}, nil
}

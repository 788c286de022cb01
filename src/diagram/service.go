package diagram

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog"

	"diagram_showcase/src/model"
)

type serviceOptions struct {
	logger zerolog.Logger
}

// Option configures a Service.
type Option func(*serviceOptions)

// WithLogger routes pipeline logging to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// Service opens and saves diagrams for the editor. Every operation returns
// immediately with a *Call; the pipeline runs on its own goroutine and its
// steps run strictly one after another. The service keeps no state between
// calls, and concurrent calls are not ordered against each other.
type Service[G any] struct {
	resolver  Resolver
	loader    Loader[G]
	capture   Capturer[G]
	persister Persister[G]
	logger    zerolog.Logger

	openByName   compose.Runnable[*openState[G], *openState[G]]
	openByPath   compose.Runnable[*openState[G], *openState[G]]
	saveSession  compose.Runnable[*saveState[G], *saveState[G]]
	saveDocument compose.Runnable[*saveState[G], *saveState[G]]
}

// NewService wires the collaborators and compiles the pipelines.
func NewService[G any](resolver Resolver, loader Loader[G], capture Capturer[G], persister Persister[G], opts ...Option) (*Service[G], error) {
	o := serviceOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Service[G]{
		resolver:  resolver,
		loader:    loader,
		capture:   capture,
		persister: persister,
		logger:    o.logger.With().Str("component", "diagram_service").Logger(),
	}

	ctx := context.Background()
	var err error
	if s.openByName, err = s.buildOpenByName(ctx); err != nil {
		return nil, err
	}
	if s.openByPath, err = s.buildOpenByPath(ctx); err != nil {
		return nil, err
	}
	if s.saveSession, err = s.buildSaveSession(ctx); err != nil {
		return nil, err
	}
	if s.saveDocument, err = s.buildSaveDocument(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenByName resolves name and loads the first candidate in lookup order.
//
// When the lookup succeeds with no candidates, neither OnSuccess nor OnError
// is called. The returned Call still completes, with Delivered reporting
// false.
func (s *Service[G]) OpenByName(ctx context.Context, name string, cb Callback[*model.Diagram[G]]) *Call {
	return s.dispatch(ctx, "open_by_name", cb, func(ctx context.Context) (*model.Diagram[G], bool, error) {
		st, err := s.openByName.Invoke(ctx, &openState[G]{name: name})
		if err != nil {
			return nil, true, fmt.Errorf("open-by-name pipeline: %w", err)
		}
		return st.diagram, !st.silent, st.err
	})
}

// OpenByPath loads the diagram stored at path.
func (s *Service[G]) OpenByPath(ctx context.Context, path model.Path, cb Callback[*model.Diagram[G]]) *Call {
	return s.dispatch(ctx, "open_by_path", cb, func(ctx context.Context) (*model.Diagram[G], bool, error) {
		st, err := s.openByPath.Invoke(ctx, &openState[G]{path: path})
		if err != nil {
			return nil, true, fmt.Errorf("open-by-path pipeline: %w", err)
		}
		return st.diagram, true, st.err
	})
}

// SaveDocument persists d as given. Its metadata, thumbnail included, is
// neither read nor changed.
func (s *Service[G]) SaveDocument(ctx context.Context, d *model.Diagram[G], cb Callback[*model.Diagram[G]]) *Call {
	return s.dispatch(ctx, "save_document", cb, func(ctx context.Context) (*model.Diagram[G], bool, error) {
		st, err := s.saveDocument.Invoke(ctx, &saveState[G]{diagram: d})
		if err != nil {
			return nil, true, fmt.Errorf("save-document pipeline: %w", err)
		}
		return st.saved, true, st.err
	})
}

// SaveSession captures a JPEG thumbnail of the session canvas, writes it to
// the session diagram's metadata in place and persists that diagram. If
// the capture fails nothing is changed or persisted and the renderer's error
// is delivered.
func (s *Service[G]) SaveSession(ctx context.Context, session EditorSession[G], cb Callback[*model.Diagram[G]]) *Call {
	return s.dispatch(ctx, "save_session", cb, func(ctx context.Context) (*model.Diagram[G], bool, error) {
		st, err := s.saveSession.Invoke(ctx, &saveState[G]{session: session})
		if err != nil {
			return nil, true, fmt.Errorf("save-session pipeline: %w", err)
		}
		return st.saved, true, st.err
	})
}

// dispatch runs pipeline asynchronously and delivers at most one outcome.
func (s *Service[G]) dispatch(
	ctx context.Context,
	op string,
	cb Callback[*model.Diagram[G]],
	pipeline func(context.Context) (*model.Diagram[G], bool, error),
) *Call {
	call := newCall()
	deliver := newOnceCallback(cb)

	go func() {
		defer call.finish()

		d, ok, err := pipeline(ctx)
		switch {
		case err != nil:
			call.delivered.Store(true)
			deliver.failure(err)
		case ok:
			call.delivered.Store(true)
			deliver.success(d)
		default:
			s.logger.Debug().Str("op", op).Msg("pipeline finished without a result")
		}
	}()

	return call
}

package diagram

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"diagram_showcase/src/model"
)

// Collaborator errors are carried in the pipeline state instead of being
// returned from lambdas, so the caller receives the exact value the
// collaborator produced.

const (
	branchLoad = "load"
	branchStop = "stop"
)

type openState[G any] struct {
	name    string
	path    model.Path
	result  *model.LookupResult
	diagram *model.Diagram[G]
	err     error
	// silent marks an empty lookup: nothing is delivered to the caller.
	silent bool
}

type saveState[G any] struct {
	session   EditorSession[G]
	diagram   *model.Diagram[G]
	thumbnail string
	saved     *model.Diagram[G]
	err       error
}

func passthrough[T any](_ context.Context, in T) (T, error) {
	return in, nil
}

// ====================== Open ======================

// buildOpenByName compiles resolve -> branch(load | stop).
func (s *Service[G]) buildOpenByName(ctx context.Context) (compose.Runnable[*openState[G], *openState[G]], error) {
	route := compose.NewChainBranch[*openState[G]](func(_ context.Context, st *openState[G]) (string, error) {
		if st.err != nil || st.silent {
			return branchStop, nil
		}
		return branchLoad, nil
	})
	route.AddLambda(branchLoad, compose.InvokableLambda(s.loadStep))
	route.AddLambda(branchStop, compose.InvokableLambda(passthrough[*openState[G]]))

	chain := compose.NewChain[*openState[G], *openState[G]]()
	chain.
		AppendLambda(compose.InvokableLambda(s.resolveStep)).
		AppendBranch(route)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile open-by-name pipeline: %w", err)
	}
	return runnable, nil
}

func (s *Service[G]) buildOpenByPath(ctx context.Context) (compose.Runnable[*openState[G], *openState[G]], error) {
	chain := compose.NewChain[*openState[G], *openState[G]]()
	chain.AppendLambda(compose.InvokableLambda(s.loadStep))

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile open-by-path pipeline: %w", err)
	}
	return runnable, nil
}

func (s *Service[G]) resolveStep(ctx context.Context, st *openState[G]) (*openState[G], error) {
	s.logger.Debug().Str("step", "resolve").Str("name", st.name).Msg("resolving diagram name")

	result, err := s.resolver.Resolve(ctx, st.name)
	if err != nil {
		s.logger.Warn().Err(err).Str("name", st.name).Msg("diagram lookup failed")
		st.err = err
		return st, nil
	}

	st.result = result
	first, ok := result.First()
	if !ok {
		s.logger.Debug().Str("name", st.name).Msg("lookup returned no diagrams")
		st.silent = true
		return st, nil
	}
	st.path = first.Path
	return st, nil
}

func (s *Service[G]) loadStep(ctx context.Context, st *openState[G]) (*openState[G], error) {
	s.logger.Debug().Str("step", "load").Str("path", st.path.String()).Msg("loading diagram")

	d, err := s.loader.LoadByPath(ctx, st.path)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", st.path.String()).Msg("diagram load failed")
		st.err = err
		return st, nil
	}
	st.diagram = d
	return st, nil
}

// ====================== Save ======================

// buildSaveSession compiles capture -> attach -> persist.
func (s *Service[G]) buildSaveSession(ctx context.Context) (compose.Runnable[*saveState[G], *saveState[G]], error) {
	chain := compose.NewChain[*saveState[G], *saveState[G]]()
	chain.
		AppendLambda(compose.InvokableLambda(s.captureStep)).
		AppendLambda(compose.InvokableLambda(s.attachStep)).
		AppendLambda(compose.InvokableLambda(s.persistStep))

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile save-session pipeline: %w", err)
	}
	return runnable, nil
}

func (s *Service[G]) buildSaveDocument(ctx context.Context) (compose.Runnable[*saveState[G], *saveState[G]], error) {
	chain := compose.NewChain[*saveState[G], *saveState[G]]()
	chain.AppendLambda(compose.InvokableLambda(s.persistStep))

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile save-document pipeline: %w", err)
	}
	return runnable, nil
}

// pinnedSession shows the diagram read at capture time; the render must
// match the document that receives the thumbnail.
type pinnedSession[G any] struct {
	diagram *model.Diagram[G]
}

func (p pinnedSession[G]) CanvasHandler() CanvasHandler[G] {
	return p
}

func (p pinnedSession[G]) Diagram() *model.Diagram[G] {
	return p.diagram
}

func (s *Service[G]) captureStep(_ context.Context, st *saveState[G]) (*saveState[G], error) {
	if st.session != nil {
		if handler := st.session.CanvasHandler(); handler != nil {
			st.diagram = handler.Diagram()
		}
	}
	if st.diagram == nil {
		st.err = &model.PersistError{Err: fmt.Errorf("%w: session has no diagram", model.ErrInvalidDiagram)}
		return st, nil
	}

	s.logger.Debug().Str("step", "capture").Str("name", st.diagram.Name).Msg("capturing thumbnail")

	thumbnail, err := s.capture.Capture(pinnedSession[G]{diagram: st.diagram}, ThumbnailFormat)
	if err != nil {
		s.logger.Warn().Err(err).Str("name", st.diagram.Name).Msg("thumbnail capture failed")
		st.err = err
		return st, nil
	}
	st.thumbnail = thumbnail
	return st, nil
}

// attachStep writes the thumbnail onto the session's own document.
func (s *Service[G]) attachStep(_ context.Context, st *saveState[G]) (*saveState[G], error) {
	if st.err != nil {
		return st, nil
	}
	if st.diagram.Metadata == nil {
		st.diagram.Metadata = &model.Metadata{}
	}
	st.diagram.Metadata.Thumbnail = st.thumbnail
	return st, nil
}

func (s *Service[G]) persistStep(ctx context.Context, st *saveState[G]) (*saveState[G], error) {
	if st.err != nil {
		return st, nil
	}
	s.logger.Debug().Str("step", "persist").Str("path", st.diagram.Path().String()).Msg("persisting diagram")

	saved, err := s.persister.Save(ctx, st.diagram)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", st.diagram.Path().String()).Msg("diagram save failed")
		st.err = err
		return st, nil
	}
	st.saved = saved
	return st, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"diagram_showcase/internal/seed"
	"diagram_showcase/src"
	"diagram_showcase/src/canvas"
	"diagram_showcase/src/diagram"
	"diagram_showcase/src/logger"
	"diagram_showcase/src/model"
	"diagram_showcase/src/storage"
)

type graphStore interface {
	diagram.LookupService
	diagram.LoadService[model.Graph]
	diagram.PersistenceService[model.Graph]
	List(ctx context.Context) ([]model.DiagramRepresentation, error)
}

type app struct {
	cfg     *src.Config
	store   graphStore
	service *diagram.Service[model.Graph]
}

const usage = `usage: diagram_showcase <command> [args]

commands:
  seed <file>        import diagrams from a YAML seed file
  open <name>        open the first diagram registered under name
  open-path <path>   open the diagram stored at path
  save <name>        open name on a canvas and save it with a fresh thumbnail
  list               list stored diagrams
  demo <file>        seed, open, save and list in one process`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	envErr := godotenv.Load()

	cfg, err := src.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.InitLogger(cfg.LogConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	if envErr != nil {
		logger.Warn().Err(envErr).Msg("no .env file loaded, using process environment")
	}

	ctx := context.Background()
	a, closeStore, err := newApp(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to start")
		os.Exit(1)
	}
	defer closeStore()

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		logger.Error().Err(err).Str("command", os.Args[1]).Msg("command failed")
		closeStore()
		os.Exit(1)
	}
}

func newApp(ctx context.Context, cfg *src.Config) (*app, func(), error) {
	opts := []storage.Option{
		storage.WithKeyPrefix(cfg.StorageConfig.KeyPrefix),
		storage.WithPathPrefix(cfg.StorageConfig.PathPrefix),
		storage.WithExtension(cfg.StorageConfig.Extension),
	}

	var store graphStore
	closeStore := func() {}
	switch strings.ToLower(cfg.StorageConfig.Backend) {
	case src.BackendRedis:
		connectCtx, cancel := context.WithTimeout(ctx, cfg.StorageConfig.Timeout)
		defer cancel()
		rs, err := storage.NewRedisStore[model.Graph](connectCtx, cfg.StorageConfig.RedisURL, opts...)
		if err != nil {
			return nil, nil, err
		}
		store = rs
		closeStore = func() { _ = rs.Close() }
	default:
		store = storage.NewMemoryStore[model.Graph](opts...)
	}

	service, err := diagram.NewService[model.Graph](
		diagram.NewPathResolver(store),
		diagram.NewDiagramLoader[model.Graph](store),
		diagram.NewThumbnailCapture[model.Graph](canvas.NewRenderer(cfg.CanvasConfig)),
		diagram.NewDiagramPersister[model.Graph](store),
		diagram.WithLogger(logger.Component("diagram")),
	)
	if err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("failed to build diagram service: %w", err)
	}

	logger.Info().Str("backend", cfg.StorageConfig.Backend).Msg("diagram service ready")
	return &app{cfg: cfg, store: store, service: service}, closeStore, nil
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	logger.Debug().Str("command", command).Strs("args", args).Msg("running command")

	arg := func() (string, error) {
		if len(args) < 1 {
			return "", fmt.Errorf("%s: missing argument\n\n%s", command, usage)
		}
		return args[0], nil
	}

	switch command {
	case "seed":
		file, err := arg()
		if err != nil {
			return err
		}
		return a.seed(ctx, file)
	case "open":
		name, err := arg()
		if err != nil {
			return err
		}
		_, err = a.openByName(ctx, name)
		return err
	case "open-path":
		path, err := arg()
		if err != nil {
			return err
		}
		return a.openByPath(ctx, model.Path(path))
	case "save":
		name, err := arg()
		if err != nil {
			return err
		}
		return a.save(ctx, name)
	case "list":
		return a.list(ctx)
	case "demo":
		file, err := arg()
		if err != nil {
			return err
		}
		return a.demo(ctx, file)
	default:
		return fmt.Errorf("unknown command %q\n\n%s", command, usage)
	}
}

// outcome collects the single delivery of a diagram operation. A call
// abandoned on timeout may still deliver later.
type outcome struct {
	mu      sync.Mutex
	diagram *model.Diagram[model.Graph]
	err     error
}

func (o *outcome) callback() diagram.Callback[*model.Diagram[model.Graph]] {
	return diagram.CallbackFuncs[*model.Diagram[model.Graph]]{
		Success: func(d *model.Diagram[model.Graph]) {
			o.mu.Lock()
			defer o.mu.Unlock()
			o.diagram = d
		},
		Error: func(err error) {
			o.mu.Lock()
			defer o.mu.Unlock()
			o.err = err
		},
	}
}

func (o *outcome) result() (*model.Diagram[model.Graph], error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.diagram, o.err
}

func (a *app) wait(ctx context.Context, call *diagram.Call) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.StorageConfig.Timeout)
	defer cancel()
	return call.Wait(ctx)
}

func (a *app) seed(ctx context.Context, file string) error {
	diagrams, err := seed.Load(file)
	if err != nil {
		return err
	}
	saved, err := seed.Import(ctx, a.service, diagrams)
	for _, d := range saved {
		fmt.Printf("seeded %-20s %s\n", d.Name, d.Path())
	}
	return err
}

func (a *app) openByName(ctx context.Context, name string) (*model.Diagram[model.Graph], error) {
	var out outcome
	call := a.service.OpenByName(ctx, name, out.callback())
	if err := a.wait(ctx, call); err != nil {
		return nil, err
	}
	if !call.Delivered() {
		fmt.Printf("no diagram named %q\n", name)
		return nil, nil
	}
	d, err := out.result()
	if err != nil {
		return nil, err
	}
	printDiagram(d)
	return d, nil
}

func (a *app) openByPath(ctx context.Context, path model.Path) error {
	var out outcome
	call := a.service.OpenByPath(ctx, path, out.callback())
	if err := a.wait(ctx, call); err != nil {
		return err
	}
	d, err := out.result()
	if errors.Is(err, model.ErrDiagramNotFound) {
		fmt.Printf("nothing stored at %s\n", path)
		return nil
	}
	if err != nil {
		return err
	}
	printDiagram(d)
	return nil
}

func (a *app) save(ctx context.Context, name string) error {
	d, err := a.openByName(ctx, name)
	if err != nil || d == nil {
		return err
	}

	session := canvas.NewSession(d)
	var out outcome
	call := a.service.SaveSession(ctx, session, out.callback())
	if err := a.wait(ctx, call); err != nil {
		return err
	}
	saved, err := out.result()
	if err != nil {
		return err
	}
	fmt.Printf("saved %s with a %d byte thumbnail\n", saved.Path(), len(saved.Metadata.Thumbnail))
	return nil
}

func (a *app) list(ctx context.Context) error {
	reps, err := a.store.List(ctx)
	if err != nil {
		return err
	}
	if len(reps) == 0 {
		fmt.Println("no diagrams stored")
		return nil
	}
	for _, r := range reps {
		thumb := "-"
		if r.Thumbnail != "" {
			thumb = "yes"
		}
		fmt.Printf("%-20s %-32s %-6s thumbnail=%s\n", r.Name, r.Path, r.DefinitionSetID, thumb)
	}
	return nil
}

func (a *app) demo(ctx context.Context, file string) error {
	if err := a.seed(ctx, file); err != nil {
		return err
	}
	diagrams, err := seed.Load(file)
	if err != nil {
		return err
	}
	for _, d := range diagrams {
		if err := a.save(ctx, d.Name); err != nil {
			return err
		}
	}
	return a.list(ctx)
}

func printDiagram(d *model.Diagram[model.Graph]) {
	fmt.Printf("%s (%s)\n", d.Name, d.Path())
	if d.Metadata != nil && d.Metadata.Title != "" {
		fmt.Printf("  title: %s\n", d.Metadata.Title)
	}
	fmt.Printf("  nodes: %d, edges: %d\n", len(d.Graph.Nodes), len(d.Graph.Edges))
	for _, n := range d.Graph.Nodes {
		label := n.Label
		if label == "" {
			label = n.ID
		}
		fmt.Printf("    - [%s] %s\n", n.Type, label)
	}
}

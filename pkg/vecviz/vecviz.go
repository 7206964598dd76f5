package vecviz

import (
	"context"
	"fmt"
	"time"

	"github.com/cognicore/vecviz/pkg/vecviz/cluster"
	"github.com/cognicore/vecviz/pkg/vecviz/config"
	"github.com/cognicore/vecviz/pkg/vecviz/dataset"
	"github.com/cognicore/vecviz/pkg/vecviz/internalerr"
	"github.com/cognicore/vecviz/pkg/vecviz/project"
	"github.com/cognicore/vecviz/pkg/vecviz/similarity"
	"github.com/cognicore/vecviz/pkg/vecviz/vectors"
	"github.com/cognicore/vecviz/pkg/vecviz/vocab"
)

// Stage names reported in StageError.
const (
	StageLoad       = "load"
	StageProjection = "projection"
	StageClustering = "clustering"
	StageDataset    = "dataset"
)

// Logger is the subset of internal/logging.Logger the engine uses.
type Logger interface {
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Warn(format string, v ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}

// Options configures an Engine.
type Options struct {
	Projector project.Projector
	Clusterer cluster.Clusterer

	// Oracle scores token pairs. Nil means cosine similarity over the
	// model passed to Prepare.
	Oracle similarity.Oracle

	Workers int           // dataset builder goroutines; 0 means runtime.NumCPU()
	Timeout time.Duration // bound on the whole build; 0 waits indefinitely
	Logger  Logger
}

// Engine turns an embedding model into a visualization dataset.
type Engine struct {
	projector project.Projector
	clusterer cluster.Clusterer
	oracle    similarity.Oracle
	builder   *dataset.Builder
	timeout   time.Duration
	log       Logger
}

// New creates an Engine with the given providers.
func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = nopLogger{}
	}
	return &Engine{
		projector: opts.Projector,
		clusterer: opts.Clusterer,
		oracle:    opts.Oracle,
		builder:   dataset.NewBuilder(opts.Workers),
		timeout:   opts.Timeout,
		log:       log,
	}
}

// NewFromConfig creates an Engine with the projector and clusterer named in
// cfg. Provider progress lines go to log at info level.
func NewFromConfig(cfg *config.Config, log Logger) (*Engine, error) {
	if log == nil {
		log = nopLogger{}
	}
	popts := cfg.Projection
	popts.Progress = log.Info
	projector, err := project.New(popts)
	if err != nil {
		return nil, err
	}
	copts := cfg.Clustering
	copts.Progress = log.Info
	clusterer, err := cluster.New(copts)
	if err != nil {
		return nil, err
	}
	return New(Options{
		Projector: projector,
		Clusterer: clusterer,
		Workers:   cfg.Builder.Workers,
		Timeout:   cfg.Builder.Timeout,
		Logger:    log,
	}), nil
}

type projectionResult struct {
	coords [][2]float64
	err    error
}

type clusteringResult struct {
	labels []int
	err    error
}

// Prepare runs projection and clustering concurrently over the model's
// vectors and assembles the dataset. counts may be nil, in which case file
// order stands in for frequency.
//
// An empty model fails with ErrEmptyVocabulary before any stage runs. Any
// other failure is a *StageError naming the stage; no later stage runs.
// Skipped similarity pairs do not fail the build; they are logged and
// counted in Dataset.SkippedPairs.
func (e *Engine) Prepare(ctx context.Context, model *vectors.Model, counts vocab.CountSource) (*dataset.Dataset, error) {
	if model == nil || model.Size() == 0 {
		return nil, internalerr.ErrEmptyVocabulary
	}
	if e.projector == nil || e.clusterer == nil {
		return nil, fmt.Errorf("engine needs a projector and a clusterer: %w", internalerr.ErrInvalidConfig)
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	idx, err := vocab.New(vocab.Entries(model.Labels, counts))
	if err != nil {
		return nil, &internalerr.StageError{Stage: StageLoad, Err: err}
	}
	if rows := model.Vectors.Rows(); rows != idx.Len() {
		return nil, &internalerr.StageError{Stage: StageLoad, Err: &internalerr.ShapeMismatchError{
			What: "vectors", Expected: idx.Len(), Actual: rows,
		}}
	}
	ranks := vocab.NewRankTable(idx)

	// providers have no cancellation hook; buffered channels let an
	// abandoned call finish without blocking
	projDone := make(chan projectionResult, 1)
	clusDone := make(chan clusteringResult, 1)
	start := time.Now()
	go func() {
		coords, err := e.projector.Project(model.Vectors)
		if err == nil {
			e.log.Info("computed 2D embedding in %.2fs", time.Since(start).Seconds())
		}
		projDone <- projectionResult{coords: coords, err: err}
	}()
	go func() {
		labels, err := e.clusterer.Cluster(model.Vectors)
		if err == nil {
			e.log.Info("found %d clusters in %.2fs", cluster.Count(labels), time.Since(start).Seconds())
		}
		clusDone <- clusteringResult{labels: labels, err: err}
	}()

	var proj projectionResult
	select {
	case proj = <-projDone:
	case <-ctx.Done():
		return nil, &internalerr.StageError{Stage: StageProjection, Err: ctx.Err()}
	}
	if proj.err != nil {
		return nil, &internalerr.StageError{Stage: StageProjection, Err: proj.err}
	}
	var clus clusteringResult
	select {
	case clus = <-clusDone:
	case <-ctx.Done():
		return nil, &internalerr.StageError{Stage: StageClustering, Err: ctx.Err()}
	}
	if clus.err != nil {
		return nil, &internalerr.StageError{Stage: StageClustering, Err: clus.err}
	}

	oracle := e.oracle
	if oracle == nil {
		oracle = similarity.NewCosine(model)
	}

	buildStart := time.Now()
	ds, err := e.builder.Build(idx, ranks, proj.coords, clus.labels, oracle)
	if err != nil {
		return nil, &internalerr.StageError{Stage: StageDataset, Err: err}
	}

	for _, w := range ds.Warnings {
		e.log.Warn("skipped pair: %v", w)
	}
	if ds.Degraded() {
		e.log.Warn("%d similarity pairs skipped; neighbor lists may be incomplete", ds.SkippedPairs)
	}
	e.log.Info("built dataset of %d records in %.2fs (total %.2fs)",
		ds.Len(), time.Since(buildStart).Seconds(), time.Since(start).Seconds())
	return ds, nil
}

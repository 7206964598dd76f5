package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cognicore/vecviz/internal/logging"
	"github.com/cognicore/vecviz/internal/server"
	"github.com/cognicore/vecviz/pkg/vecviz"
	"github.com/cognicore/vecviz/pkg/vecviz/cluster"
	"github.com/cognicore/vecviz/pkg/vecviz/config"
	"github.com/cognicore/vecviz/pkg/vecviz/dataset"
	"github.com/cognicore/vecviz/pkg/vecviz/project"
	"github.com/cognicore/vecviz/pkg/vecviz/store"
	"github.com/cognicore/vecviz/pkg/vecviz/store/memstore"
	"github.com/cognicore/vecviz/pkg/vecviz/store/sqlite"
)

type runOptions struct {
	serveOnly bool // serve the latest stored build without recomputing
	noServe   bool // build and store, then exit
}

func main() {
	fs := flag.NewFlagSet("vecviz", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML config file (optional)")
	serveOnly := fs.Bool("serve-only", false, "Serve the latest stored build instead of building")
	noServe := fs.Bool("no-serve", false, "Build and store the dataset, then exit")
	registerOverrides(fs)
	fs.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.New("error").Fatal("Failed to load configuration: ", err)
	}
	if err := applyFlags(fs, cfg); err != nil {
		logging.New("error").Fatal("Invalid flags: ", err)
	}

	logger := logging.New(cfg.Log.Level)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, runOptions{serveOnly: *serveOnly, noServe: *noServe}, logger); err != nil {
		logger.Fatal(err)
	}
}

// registerOverrides adds flags mirroring the most used config keys. Only
// flags given on the command line override the config.
func registerOverrides(fs *flag.FlagSet) {
	def := config.Default()
	fs.String("model", "", "Embedding model file")
	fs.String("format", def.Model.Format, "Model format: word2vec-bin, word2vec-text or glove")
	fs.String("counts", "", "Token counts file (\"token count\" per line)")
	fs.String("corpus", "", "Raw text corpus to count tokens from")
	fs.Bool("lowercase", false, "Lowercase corpus tokens before counting")
	fs.Bool("half", false, "Store vectors in half precision")
	fs.Int("limit", 0, "Use only the first N tokens of the model (0 = all)")
	fs.String("projection", string(def.Projection.Algorithm), "Projection: tsne or pca")
	fs.Int("projection-iterations", def.Projection.Iterations, "Projection iterations")
	fs.Float64("perplexity", def.Projection.Perplexity, "t-SNE perplexity")
	fs.String("clustering", string(def.Clustering.Algorithm), "Clustering: agglo or kmeans")
	fs.Int("clusters", 0, "Target cluster count (0 derives it from -avg-cluster-size)")
	fs.Int("avg-cluster-size", 0, "Average cluster size used when -clusters is 0")
	fs.String("linkage", string(def.Clustering.Linkage), "Agglomerative linkage: ward, average, complete or single")
	fs.Int("verbosity", 0, "Provider progress verbosity")
	fs.Int("workers", def.Builder.Workers, "Dataset builder goroutines")
	fs.Duration("timeout", 0, "Bound on the whole build (0 = none)")
	fs.String("addr", def.Server.Addr, "Listen address")
	fs.String("db", "", "SQLite file for stored builds (empty = memory)")
	fs.String("log-level", def.Log.Level, "Log level: debug, info, warn or error")
}

func applyFlags(fs *flag.FlagSet, cfg *config.Config) error {
	fs.Visit(func(f *flag.Flag) {
		g, ok := f.Value.(flag.Getter)
		if !ok {
			return
		}
		v := g.Get()
		switch f.Name {
		case "model":
			cfg.Model.Path = v.(string)
		case "format":
			cfg.Model.Format = v.(string)
		case "counts":
			cfg.Model.CountsPath = v.(string)
		case "corpus":
			cfg.Model.CorpusPath = v.(string)
		case "lowercase":
			cfg.Model.Lowercase = v.(bool)
		case "half":
			cfg.Model.HalfPrecision = v.(bool)
		case "limit":
			cfg.Model.Limit = v.(int)
		case "projection":
			cfg.Projection.Algorithm = project.Algorithm(v.(string))
		case "projection-iterations":
			cfg.Projection.Iterations = v.(int)
		case "perplexity":
			cfg.Projection.Perplexity = v.(float64)
		case "clustering":
			cfg.Clustering.Algorithm = cluster.Algorithm(v.(string))
		case "clusters":
			cfg.Clustering.TargetClusterCount = v.(int)
		case "avg-cluster-size":
			cfg.Clustering.AverageClusterSize = v.(int)
		case "linkage":
			cfg.Clustering.Linkage = cluster.Linkage(v.(string))
		case "verbosity":
			cfg.Projection.Verbosity = v.(int)
			cfg.Clustering.Verbosity = v.(int)
		case "workers":
			cfg.Builder.Workers = v.(int)
		case "timeout":
			cfg.Builder.Timeout = v.(time.Duration)
		case "addr":
			cfg.Server.Addr = v.(string)
		case "db":
			cfg.Store.Path = v.(string)
		case "log-level":
			cfg.Log.Level = v.(string)
		}
	})
	return cfg.Validate()
}

func run(ctx context.Context, cfg *config.Config, opts runOptions, logger *logging.Logger) error {
	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	var (
		ds    *dataset.Dataset
		build store.Build
	)
	if opts.serveOnly {
		build, ds, err = st.LatestBuild(ctx)
		if err != nil {
			return fmt.Errorf("load stored build: %w", err)
		}
		logger.Info("serving stored build %s (%d tokens, %d clusters)", build.ID, build.Tokens, build.Clusters)
	} else {
		build, ds, err = buildAndStore(ctx, cfg, st, logger)
		if err != nil {
			return err
		}
	}

	if opts.noServe {
		return nil
	}
	srv, err := server.New(ds, build, st, logger)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, cfg.Server.Addr, cfg.Server.MaxConns)
}

func openStore(ctx context.Context, cfg config.Store) (store.Store, error) {
	if cfg.Path == "" {
		return memstore.New(), nil
	}
	return sqlite.OpenSQLite(ctx, cfg.Path)
}

func buildAndStore(ctx context.Context, cfg *config.Config, st store.Store, logger *logging.Logger) (store.Build, *dataset.Dataset, error) {
	loader := config.Loader{Model: cfg.Model}
	comp, err := loader.Load()
	if err != nil {
		return store.Build{}, nil, err
	}
	logger.Info("loaded %d tokens (%d dimensions) from %s",
		comp.Model.Size(), comp.Model.Vectors.Dim(), cfg.Model.Path)

	engine, err := vecviz.NewFromConfig(cfg, logger)
	if err != nil {
		return store.Build{}, nil, err
	}
	ds, err := engine.Prepare(ctx, comp.Model, comp.Counts)
	if err != nil {
		return store.Build{}, nil, err
	}

	build, err := st.SaveBuild(ctx, store.Build{ModelPath: cfg.Model.Path}, ds)
	if err != nil {
		return store.Build{}, nil, fmt.Errorf("save build: %w", err)
	}
	logger.Info("stored build %s", build.ID)
	return build, ds, nil
}

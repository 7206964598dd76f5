package store

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/vecviz/pkg/vecviz/dataset"
)

// Store persists built datasets so they can be served without recomputing.
type Store interface {
	Close() error

	// SaveBuild stores ds. A missing ID or CreatedAt is filled in and the
	// summary fields are derived from ds; the completed Build is returned.
	SaveBuild(ctx context.Context, b Build, ds *dataset.Dataset) (Build, error)
	GetBuild(ctx context.Context, id string) (Build, *dataset.Dataset, error)
	LatestBuild(ctx context.Context) (Build, *dataset.Dataset, error)
	// ListBuilds returns up to limit builds, newest first. limit <= 0 lists all.
	ListBuilds(ctx context.Context, limit int) ([]Build, error)
	DeleteBuild(ctx context.Context, id string) error
}

// Build describes one stored dataset.
type Build struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	ModelPath    string    `json:"model_path"`
	Tokens       int       `json:"tokens"`
	Clusters     int       `json:"clusters"`
	SkippedPairs int       `json:"skipped_pairs"`
}

// Complete fills the generated and derived fields of b for ds.
func (b Build) Complete(ds *dataset.Dataset, ids *IDGenerator) Build {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	b.CreatedAt = b.CreatedAt.UTC().Truncate(time.Millisecond)
	if b.ID == "" {
		b.ID = ids.New(b.CreatedAt)
	}
	b.Tokens = ds.Len()
	b.Clusters = len(ds.ClusterSizes())
	b.SkippedPairs = ds.SkippedPairs
	return b
}

// IDGenerator hands out ULIDs that sort by creation time, so the newest
// build is the greatest id.
type IDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *IDGenerator) New(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), g.entropy).String()
}

package config

import (
	"fmt"

	"github.com/cognicore/vecviz/pkg/vecviz/vectors"
	"github.com/cognicore/vecviz/pkg/vecviz/vocab"
)

// Loader loads the model files named by a Model section.
type Loader struct {
	Model Model
}

// Components holds everything read from disk for one build.
type Components struct {
	Model  *vectors.Model
	Counts vocab.CountSource // nil means file order stands in for frequency
}

// Load reads the embedding model and, when configured, its token counts.
// A counts file wins over a corpus.
func (l *Loader) Load() (*Components, error) {
	if l.Model.Path == "" {
		return nil, fmt.Errorf("model.path is required")
	}
	format, err := vectors.ParseFormat(l.Model.Format)
	if err != nil {
		return nil, err
	}

	comp := &Components{}
	comp.Model, err = vectors.LoadFile(l.Model.Path, vectors.LoadOptions{
		Format:        format,
		HalfPrecision: l.Model.HalfPrecision,
		Limit:         l.Model.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	switch {
	case l.Model.CountsPath != "":
		counts, err := vocab.LoadCountsFile(l.Model.CountsPath)
		if err != nil {
			return nil, fmt.Errorf("load counts: %w", err)
		}
		comp.Counts = vocab.MapCounts(counts)
	case l.Model.CorpusPath != "":
		counter, err := vocab.CountCorpusFile(l.Model.CorpusPath, l.Model.Lowercase)
		if err != nil {
			return nil, fmt.Errorf("count corpus: %w", err)
		}
		comp.Counts = counter
	}

	return comp, nil
}

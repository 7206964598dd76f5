package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/cognicore/vecviz/pkg/vecviz/dataset"
	"github.com/cognicore/vecviz/pkg/vecviz/store"
	"github.com/cognicore/vecviz/pkg/vecviz/store/sqlite"
)

func main() {
	var (
		dbPath  = flag.String("db", "", "SQLite file with stored builds (required)")
		buildID = flag.String("build", "", "Build id to export (default: latest)")
		outPath = flag.String("out", "", "Output file (default: stdout)")
		list    = flag.Bool("list", false, "List stored builds instead of exporting")
		indent  = flag.Bool("indent", false, "Indent JSON output")
	)
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("--db required")
	}

	ctx := context.Background()
	st, err := sqlite.OpenSQLite(ctx, *dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

	if *list {
		if err := listBuilds(ctx, st, os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}

	out := io.Writer(os.Stdout)
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		out = f
	}
	b, err := export(ctx, st, *buildID, out, *indent)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("exported build %s: %d tokens, %d clusters, %d skipped pairs",
		b.ID, b.Tokens, b.Clusters, b.SkippedPairs)
}

// export writes the dataset of build id (or the latest build) as JSON.
func export(ctx context.Context, st store.Store, id string, w io.Writer, indent bool) (store.Build, error) {
	var (
		b   store.Build
		ds  *dataset.Dataset
		err error
	)
	if id == "" {
		b, ds, err = st.LatestBuild(ctx)
	} else {
		b, ds, err = st.GetBuild(ctx, id)
	}
	if err != nil {
		return store.Build{}, fmt.Errorf("load build: %w", err)
	}

	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(ds); err != nil {
		return store.Build{}, err
	}
	return b, nil
}

func listBuilds(ctx context.Context, st store.Store, w io.Writer) error {
	builds, err := st.ListBuilds(ctx, 0)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tTOKENS\tCLUSTERS\tSKIPPED\tMODEL")
	for _, b := range builds {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			b.ID, b.CreatedAt.Format("2006-01-02 15:04:05"), b.Tokens, b.Clusters, b.SkippedPairs, b.ModelPath)
	}
	return tw.Flush()
}

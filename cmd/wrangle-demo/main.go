// Command wrangle-demo maps a stream of YAML documents into typed records
// through a registered pipeline and prints the result of each mapping.
// It exists to exercise the engine end to end from the command line:
//
//	wrangle-demo -input records.yaml
//
// Each YAML document is one record:
//
//	name: Ada Lovelace
//	age: 36
//	languages: [analytical-engine-notes]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-wrangle/pipeline"
	"github.com/ahrav/go-wrangle/transforms"
)

// Record is the target model for each YAML document.
type Record struct {
	Name      string
	Age       int
	Languages []any
}

func main() {
	inputPath := flag.String("input", "", "Path to a YAML stream of records (defaults to stdin)")
	flag.Parse()

	in := os.Stdin
	if *inputPath != "" {
		f, err := os.Open(*inputPath)
		if err != nil {
			log.Fatalf("open input: %v", err)
		}
		defer f.Close()
		in = f
	}

	p := pipeline.New()
	if err := pipeline.Register(p, pipeline.Binding[Record]{
		Fields: map[string]pipeline.Transform{
			"Name":      transforms.Get{Key: "name"},
			"Age":       transforms.Get{Key: "age", Fallback: 0},
			"Languages": transforms.Get{Key: "languages", Fallback: []any{}},
		},
	}); err != nil {
		log.Fatalf("register model: %v", err)
	}

	if err := run(context.Background(), p, in, os.Stdout); err != nil {
		log.Fatalf("map records: %v", err)
	}
}

// run decodes the YAML document stream and maps each document to a Record.
func run(ctx context.Context, p *pipeline.Pipeline, in io.Reader, out io.Writer) error {
	decoder := yaml.NewDecoder(in)

	n := 0
	for {
		var doc map[string]any
		if err := decoder.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("decode document %d: %w", n+1, err)
		}
		n++

		record, err := pipeline.Create[Record](ctx, p, doc)
		if err != nil {
			return fmt.Errorf("document %d: %w", n, err)
		}
		fmt.Fprintf(out, "%s (age %d, %d languages)\n", record.Name, record.Age, len(record.Languages))
	}

	fmt.Fprintf(out, "mapped %d records\n", n)
	return nil
}

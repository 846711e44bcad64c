// Package seed loads an initial course catalogue from YAML.
package seed

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/groovemind/internal/model"
)

// File is the layout of a seed file:
//
//	courses:
//	  - name: Beginner Salsa
//	    price: 60
//	    classes:
//	      - {date: "2026-01-05", time: "19:00", description: Basic step}
type File struct {
	Courses []model.Course `yaml:"courses"`
}

// CourseStore is what Apply needs from the course repository.
type CourseStore interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, c model.Course) (model.Course, error)
}

// Load reads and decodes the seed file at path.  Unknown keys are rejected
// so a typo does not silently drop a field.
func Load(path string) ([]model.Course, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var sf File
	if err := dec.Decode(&sf); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for i, c := range sf.Courses {
		if c.Name == "" {
			return nil, fmt.Errorf("%s: course %d has no name", path, i+1)
		}
	}
	return sf.Courses, nil
}

// Apply creates courses only when the store holds none, so restarting with
// the same seed file never duplicates the catalogue.  It returns the number
// of courses created.
func Apply(ctx context.Context, store CourseStore, courses []model.Course) (int, error) {
	n, err := store.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	for i, c := range courses {
		if _, err := store.Create(ctx, c); err != nil {
			return i, fmt.Errorf("seed course %q: %w", c.Name, err)
		}
	}
	return len(courses), nil
}

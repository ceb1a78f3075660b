package source

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"floorwatch/core-go/internal/floorplan"
)

type fixtureDoc struct {
	Buildings map[string]fixtureBuilding `yaml:"buildings"`
}

type fixtureBuilding struct {
	Floors []floorplan.Floor `yaml:"floors"`
}

// FileFetcher serves floors from a YAML fixture:
//
//	buildings:
//	  hq:
//	    floors:
//	      - floor_number: 1
//	        rooms: [...]
//
// The file is re-read on every fetch so edits show up on the next refresh.
type FileFetcher struct {
	path string
}

func NewFileFetcher(path string) *FileFetcher {
	return &FileFetcher{path: path}
}

func (f *FileFetcher) FetchFloors(ctx context.Context, buildingID string) ([]floorplan.Floor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var doc fixtureDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", f.path, err)
	}
	b, ok := doc.Buildings[buildingID]
	if !ok {
		return nil, ErrBuildingNotFound
	}
	if b.Floors == nil {
		return []floorplan.Floor{}, nil
	}
	return b.Floors, nil
}

package region

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// SeedNode is one entry of a region seed file. Nesting depth decides the
// level: provinces at the top, villages at the fourth level.
type SeedNode struct {
	ID       string     `yaml:"id"`
	Name     string     `yaml:"name"`
	Children []SeedNode `yaml:"children"`
}

type seedFile struct {
	Provinces []SeedNode `yaml:"provinces"`
}

var levelsByDepth = []Level{LevelProvince, LevelRegency, LevelDistrict, LevelVillage}

// LoadSeed decodes a YAML region tree and flattens it parent-first.
func LoadSeed(r io.Reader) ([]*Region, error) {
	var file seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode region seed: %w", err)
	}

	var out []*Region
	if err := flatten(file.Provinces, "", 0, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func flatten(nodes []SeedNode, parentID string, depth int, out *[]*Region) error {
	if len(nodes) == 0 {
		return nil
	}
	if depth >= len(levelsByDepth) {
		return fmt.Errorf("region seed nests deeper than %s under %s", LevelVillage, parentID)
	}
	for _, n := range nodes {
		id := strings.TrimSpace(n.ID)
		if id == "" || strings.TrimSpace(n.Name) == "" {
			return fmt.Errorf("region seed entry under %q needs an id and a name", parentID)
		}
		r := &Region{Name: strings.TrimSpace(n.Name), Level: levelsByDepth[depth], ParentID: parentID}
		r.ID = id
		*out = append(*out, r)
		if err := flatten(n.Children, id, depth+1, out); err != nil {
			return err
		}
	}
	return nil
}

package seed

import (
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/mysa/internal/domain"
	"github.com/MrSnakeDoc/mysa/internal/session"
)

// Mapper converts seed entries to session inputs
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapEntries converts a SeedFile to inputs in file order
func (m *Mapper) MapEntries(file SeedFile) ([]session.Input, error) {
	var inputs []session.Input

	for i, e := range file.Entries {
		set := 0
		in := session.Input{IntervalMinutes: e.Every}
		if v := strings.TrimSpace(e.URL); v != "" {
			in.Kind, in.Reference = domain.KindURL, v
			set++
		}
		if v := strings.TrimSpace(e.File); v != "" {
			in.Kind, in.Reference = domain.KindFile, v
			set++
		}
		if v := strings.TrimSpace(e.Ref); v != "" {
			in.Kind, in.Reference = domain.Classify(v), v
			set++
		}

		switch {
		case set == 0:
			// Skip entries without a reference
			continue
		case set > 1:
			return nil, fmt.Errorf("entry %d: set only one of url, file or ref", i)
		case e.Every < 0:
			return nil, fmt.Errorf("entry %d: every must be >= 0", i)
		}

		inputs = append(inputs, in)
	}

	if len(inputs) == 0 {
		return nil, fmt.Errorf("no valid entries found in seed file")
	}

	return inputs, nil
}

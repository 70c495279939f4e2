// Package parse decodes collector record files. Files are YAML; JSON is a
// YAML subset so both feed the same decoder.
package parse

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/openparl/kollator/internal/domain"
)

// File is one collector submission file: any mix of top-level records.
type File struct {
	Processes []domain.Process  `yaml:"processes"`
	Sessions  []domain.Session  `yaml:"sessions"`
	Documents []domain.Document `yaml:"documents"`
}

// Records decodes a submission file.
func Records(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode record file: %w", err)
	}

	// Collector-supplied categorical values are mapped onto the closed
	// enumerations here; unknown values land in the catch-all bucket and
	// are flagged later by the serialization guard.
	for i := range f.Processes {
		p := &f.Processes[i]
		p.Type = domain.ParseProcessType(string(p.Type))
		for j := range p.Identifiers {
			p.Identifiers[j].Kind = domain.ParseIdentifierKind(string(p.Identifiers[j].Kind))
		}
		for j := range p.Stages {
			normalizeStage(&p.Stages[j])
		}
	}
	for i := range f.Sessions {
		s := &f.Sessions[i]
		s.Committee.Parliament = domain.ParseParliament(string(s.Committee.Parliament))
		for j := range s.AgendaItems {
			for k := range s.AgendaItems[j].Documents {
				normalizeDocument(&s.AgendaItems[j].Documents[k])
			}
		}
	}
	for i := range f.Documents {
		normalizeDocument(&f.Documents[i])
	}

	return &f, nil
}

func normalizeStage(s *domain.Stage) {
	s.Type = domain.ParseStageType(string(s.Type))
	if s.Committee != nil {
		s.Committee.Parliament = domain.ParseParliament(string(s.Committee.Parliament))
	}
	for i := range s.Documents {
		normalizeDocument(&s.Documents[i])
	}
	for i := range s.Opinions {
		normalizeDocument(&s.Opinions[i].Document)
	}
}

func normalizeDocument(d *domain.Document) {
	if d.IsReference() {
		return
	}
	d.Type = domain.ParseDocumentType(string(d.Type))
}

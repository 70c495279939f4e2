package domain

// ValidateProcess checks the structural invariants of an incoming process
// record before matching begins.
func ValidateProcess(p *Process) error {
	if p.ExternalID == "" {
		return &ValidationError{Field: "external_id", Reason: "must not be empty"}
	}
	if p.Title == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if p.LegislativePeriod <= 0 {
		return &ValidationError{Field: "legislative_period", Reason: "must be positive"}
	}
	for i := range p.Stages {
		if err := ValidateStage(&p.Stages[i]); err != nil {
			return err
		}
	}
	for _, id := range p.Identifiers {
		if id.Value == "" {
			return &ValidationError{Field: "identifiers", Reason: "identifier value must not be empty"}
		}
	}
	return nil
}

// ValidateStage checks an incoming stage record.
func ValidateStage(s *Stage) error {
	if s.Type == "" {
		return &ValidationError{Field: "stage.type", Reason: "must not be empty"}
	}
	if s.StartedAt.IsZero() {
		return &ValidationError{Field: "stage.started_at", Reason: "must be set"}
	}
	if s.Committee != nil {
		if err := ValidateCommittee(s.Committee); err != nil {
			return err
		}
	}
	for i := range s.Documents {
		if err := ValidateDocument(&s.Documents[i]); err != nil {
			return err
		}
	}
	for i := range s.Opinions {
		if err := ValidateDocument(&s.Opinions[i].Document); err != nil {
			return err
		}
	}
	return nil
}

// ValidateDocument checks an incoming document record. A pure external-id
// reference is valid; a full payload requires title, type and hash.
func ValidateDocument(d *Document) error {
	if d.IsReference() {
		return nil
	}
	if d.Hash == "" {
		return &ValidationError{Field: "document.hash", Reason: "must not be empty unless the document is an external-id reference"}
	}
	if d.Title == "" {
		return &ValidationError{Field: "document.title", Reason: "must not be empty"}
	}
	if d.Type == "" {
		return &ValidationError{Field: "document.type", Reason: "must not be empty"}
	}
	return nil
}

// ValidateSession checks an incoming committee session record.
func ValidateSession(s *Session) error {
	if s.ScheduledAt.IsZero() {
		return &ValidationError{Field: "session.scheduled_at", Reason: "must be set"}
	}
	if err := ValidateCommittee(&s.Committee); err != nil {
		return err
	}
	for i := range s.AgendaItems {
		item := &s.AgendaItems[i]
		if item.Title == "" {
			return &ValidationError{Field: "agenda_item.title", Reason: "must not be empty"}
		}
		for j := range item.Documents {
			if err := ValidateDocument(&item.Documents[j]); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateCommittee checks a committee reference.
func ValidateCommittee(c *Committee) error {
	if c.Name == "" {
		return &ValidationError{Field: "committee.name", Reason: "must not be empty"}
	}
	if c.Parliament == "" {
		return &ValidationError{Field: "committee.parliament", Reason: "must not be empty"}
	}
	if c.LegislativePeriod <= 0 {
		return &ValidationError{Field: "committee.legislative_period", Reason: "must be positive"}
	}
	return nil
}

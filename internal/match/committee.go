package match

import (
	"context"

	"github.com/openparl/kollator/internal/domain"
	"github.com/openparl/kollator/internal/notify"
	"github.com/openparl/kollator/internal/similarity"
	"github.com/openparl/kollator/internal/store"
)

// LookupCommittee resolves a committee reference without creating anything:
// an exact (name, parliament, period) hit wins; failing that, a single
// same-parliament, same-period committee whose name scores above the name
// threshold is accepted as the fuzzy resolution. The returned near list
// holds the names of every above-threshold committee in the parliament.
func LookupCommittee(q store.Queryer, c *domain.Committee) (string, []string, error) {
	exact, err := store.FindCommitteeExact(q, c)
	if err != nil {
		return "", nil, err
	}
	if exact != "" {
		return exact, nil, nil
	}

	refs, err := store.ListCommitteesByParliament(q, c.Parliament)
	if err != nil {
		return "", nil, err
	}

	var nearNames []string
	var samePeriod []store.CommitteeRef
	for _, ref := range refs {
		if similarity.Score(ref.Name, c.Name) > similarity.NameThreshold {
			nearNames = append(nearNames, ref.Name)
			if ref.LegislativePeriod == c.LegislativePeriod {
				samePeriod = append(samePeriod, ref)
			}
		}
	}

	if len(samePeriod) == 1 {
		return samePeriod[0].UUID, nearNames, nil
	}
	return "", nearNames, nil
}

// ResolveCommittee resolves a committee reference, creating the committee
// when nothing stored matches. When near-matches exist but none resolves,
// a new-enum-entry notification fires before the row is created.
func ResolveCommittee(ctx context.Context, q store.Queryer, n notify.Notifier, c *domain.Committee) (string, error) {
	committeeUUID, nearNames, err := LookupCommittee(q, c)
	if err != nil {
		return "", err
	}
	if committeeUUID != "" {
		if err := store.UpdateCommittee(q, committeeUUID, c); err != nil {
			return "", err
		}
		return committeeUUID, nil
	}

	if len(nearNames) > 0 && n != nil {
		n.NewEnumEntry(ctx, c.Name, nearNames)
	}

	return store.InsertCommittee(q, c)
}

package model

// Filter describes a conjunctive query over the store. Zero values mean
// "no constraint". Tags match if the record carries at least one of the
// given tags. Date bounds are inclusive and compared lexicographically,
// which is correct because timestamps use TimestampLayout (RFC 3339 UTC).
type Filter struct {
	Type       RecordType `json:"type,omitempty"`
	ProjectID  string     `json:"projectId,omitempty"`
	Repository string     `json:"repository,omitempty"`
	SSG        string     `json:"ssg,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	StartDate  string     `json:"startDate,omitempty"`
	EndDate    string     `json:"endDate,omitempty"`
	Limit      int        `json:"limit,omitempty"`
}

// Matches reports whether r satisfies every supplied predicate.
func (f Filter) Matches(r *Record) bool {
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	if f.ProjectID != "" && r.Metadata.ProjectID != f.ProjectID {
		return false
	}
	if f.Repository != "" && r.Metadata.Repository != f.Repository {
		return false
	}
	if f.SSG != "" && r.Metadata.SSG != f.SSG {
		return false
	}
	if len(f.Tags) > 0 && !matchAnyTag(r, f.Tags) {
		return false
	}
	if f.StartDate != "" && r.Timestamp < f.StartDate {
		return false
	}
	if f.EndDate != "" && r.Timestamp > f.EndDate {
		return false
	}
	return true
}

func matchAnyTag(r *Record, want []string) bool {
	tags := r.Tags
	if len(tags) == 0 {
		tags = r.Metadata.Tags
	}
	for _, t := range tags {
		for _, w := range want {
			if t == w {
				return true
			}
		}
	}
	return false
}

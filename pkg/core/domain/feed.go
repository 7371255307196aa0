package domain

import (
	"encoding/json"
	"fmt"
)

// FeedIDPrefix namespaces feed fingerprints
const FeedIDPrefix = "main-feed:"

// SortOrder is a sort direction
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortField names a sortable link column
type SortField string

const (
	SortByDescription SortField = "description"
	SortByURL         SortField = "url"
	SortByCreatedAt   SortField = "createdAt"
)

// SortSpec maps exactly one sortable field to a direction.
// A feed takes an ordered list of them; the first one is the primary key.
type SortSpec struct {
	Description *SortOrder `json:"description,omitempty"`
	URL         *SortOrder `json:"url,omitempty"`
	CreatedAt   *SortOrder `json:"createdAt,omitempty"`
}

// Ordering is a validated SortSpec
type Ordering struct {
	Field SortField
	Desc  bool
}

// Ordering resolves the single field and direction a SortSpec carries.
func (s SortSpec) Ordering() (Ordering, error) {
	var (
		out Ordering
		set int
	)

	for _, c := range []struct {
		field SortField
		order *SortOrder
	}{
		{SortByDescription, s.Description},
		{SortByURL, s.URL},
		{SortByCreatedAt, s.CreatedAt},
	} {
		if c.order == nil {
			continue
		}
		set++
		switch *c.order {
		case SortAsc:
			out = Ordering{Field: c.field}
		case SortDesc:
			out = Ordering{Field: c.field, Desc: true}
		default:
			return Ordering{}, fmt.Errorf("%w: sort direction %q for %s", ErrInvalidArgument, *c.order, c.field)
		}
	}

	if set != 1 {
		return Ordering{}, fmt.Errorf("%w: orderBy entry must set exactly one field, got %d", ErrInvalidArgument, set)
	}
	return out, nil
}

// FeedQuery carries the optional feed parameters.
// Nil means the caller did not pass the argument.
type FeedQuery struct {
	Filter  *string
	Skip    *int
	Take    *int
	OrderBy []SortSpec
}

// Validate checks ranges and sort keys and returns the resolved orderings.
func (q FeedQuery) Validate() ([]Ordering, error) {
	if q.Skip != nil && *q.Skip < 0 {
		return nil, fmt.Errorf("%w: skip must be non-negative, got %d", ErrInvalidArgument, *q.Skip)
	}
	if q.Take != nil && *q.Take < 0 {
		return nil, fmt.Errorf("%w: take must be non-negative, got %d", ErrInvalidArgument, *q.Take)
	}

	orderings := make([]Ordering, 0, len(q.OrderBy))
	for i, spec := range q.OrderBy {
		o, err := spec.Ordering()
		if err != nil {
			return nil, fmt.Errorf("orderBy[%d]: %w", i, err)
		}
		orderings = append(orderings, o)
	}
	return orderings, nil
}

// FilterText returns the filter or "" when absent.
// An empty filter does not restrict the feed.
func (q FeedQuery) FilterText() string {
	if q.Filter == nil {
		return ""
	}
	return *q.Filter
}

// Offset returns skip, defaulting to 0
func (q FeedQuery) Offset() int {
	if q.Skip == nil {
		return 0
	}
	return *q.Skip
}

// Limit returns take and whether it was given; absent take is unbounded.
func (q FeedQuery) Limit() (int, bool) {
	if q.Take == nil {
		return 0, false
	}
	return *q.Take, true
}

// Fingerprint serializes the query parameters in a fixed key order.
// Equal parameters give equal fingerprints; result contents play no part.
func (q FeedQuery) Fingerprint() string {
	fp := struct {
		Filter  *string     `json:"filter,omitempty"`
		Skip    *int        `json:"skip,omitempty"`
		Take    *int        `json:"take,omitempty"`
		OrderBy *[]SortSpec `json:"orderBy,omitempty"`
	}{
		Filter: q.Filter,
		Skip:   q.Skip,
		Take:   q.Take,
	}
	if q.OrderBy != nil {
		fp.OrderBy = &q.OrderBy
	}

	// only strings, ints and string-typed enums: marshal cannot fail
	b, _ := json.Marshal(fp)
	return FeedIDPrefix + string(b)
}

// FeedResult is one page of the feed plus the unpaginated match count
type FeedResult struct {
	Links []Link `json:"links"`
	Count int64  `json:"count"`
	ID    string `json:"id"`
}

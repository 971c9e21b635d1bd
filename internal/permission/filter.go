package permission

import (
	"strings"
	"time"

	"serchadmin/internal/model"

	"github.com/google/uuid"
)

// DefaultPageSize is the page length used when a caller does not pick one.
const DefaultPageSize = 10

type RequesterFilter string

const (
	RequesterMe     RequesterFilter = "ME"
	RequesterOthers RequesterFilter = "OTHERS"
)

// TimeBucket names a relative creation-time window. Boundaries are computed
// against wall-clock now at filter-application time, never cached.
type TimeBucket string

const (
	BucketToday     TimeBucket = "TODAY"
	BucketThisWeek  TimeBucket = "THIS_WEEK"
	BucketLastWeek  TimeBucket = "LAST_WEEK"
	BucketThisMonth TimeBucket = "THIS_MONTH"
	BucketLastMonth TimeBucket = "LAST_MONTH"
	BucketThisYear  TimeBucket = "THIS_YEAR"
	BucketLastYear  TimeBucket = "LAST_YEAR"
)

// Filter keeps a subset of records. Implementations are pure predicates.
type Filter interface {
	matches(record model.PermissionRequestRecord, now time.Time) bool
}

type requesterFilter struct {
	viewer uuid.UUID
	which  RequesterFilter
}

func (f requesterFilter) matches(record model.PermissionRequestRecord, _ time.Time) bool {
	mine := record.RequestedBy.ID == f.viewer
	if f.which == RequesterMe {
		return mine
	}
	return !mine
}

// ByRequester keeps records created by the viewer (ME) or by anyone else
// (OTHERS).
func ByRequester(viewer uuid.UUID, which RequesterFilter) Filter {
	return requesterFilter{viewer: viewer, which: which}
}

type statusFilter struct {
	status model.RequestStatus
}

func (f statusFilter) matches(record model.PermissionRequestRecord, _ time.Time) bool {
	return record.Status == f.status
}

func ByStatus(status model.RequestStatus) Filter {
	return statusFilter{status: status}
}

type bucketFilter struct {
	bucket TimeBucket
}

func (f bucketFilter) matches(record model.PermissionRequestRecord, now time.Time) bool {
	start, end := bucketRange(now, f.bucket)
	return !record.CreatedAt.Before(start) && record.CreatedAt.Before(end)
}

// ByCreated keeps records whose CreatedAt falls inside the named window.
func ByCreated(bucket TimeBucket) Filter {
	return bucketFilter{bucket: bucket}
}

// Projection derives a filtered view of the record collection without
// touching the store. At most one structured filter is active at a time;
// setting a new one replaces the previous one entirely, and the view is
// always recomputed from the full unfiltered collection. A free-text query
// is held independently and composes with the active filter.
type Projection struct {
	filter Filter
	query  string
}

func NewProjection() *Projection {
	return &Projection{}
}

// SetFilter makes f the active structured filter, clearing any previous one.
func (p *Projection) SetFilter(f Filter) {
	p.filter = f
}

// ClearFilter removes the structured filter; Apply then restores the
// unfiltered collection (modulo the free-text query).
func (p *Projection) ClearFilter() {
	p.filter = nil
}

func (p *Projection) SetQuery(query string) {
	p.query = query
}

func (p *Projection) ClearQuery() {
	p.query = ""
}

// Apply computes the view over the full collection. Groups keep their order;
// groups left with no matching records are dropped.
func (p *Projection) Apply(groups []model.PermissionRequestGroup, now time.Time) []model.PermissionRequestGroup {
	if p.filter == nil && p.query == "" {
		return groups
	}

	query := strings.ToLower(strings.TrimSpace(p.query))

	var out []model.PermissionRequestGroup
	for _, group := range groups {
		var kept []model.PermissionRequestRecord
		for _, record := range group.Requests {
			if p.filter != nil && !p.filter.matches(record, now) {
				continue
			}
			if query != "" && !matchesQuery(record, query) {
				continue
			}
			kept = append(kept, record)
		}
		if len(kept) > 0 {
			out = append(out, model.PermissionRequestGroup{
				Label:     group.Label,
				CreatedAt: group.CreatedAt,
				Requests:  kept,
			})
		}
	}
	return out
}

// matchesQuery does a case-insensitive substring match over the record's
// display fields: id, scope label, permission, requester name, status.
func matchesQuery(record model.PermissionRequestRecord, query string) bool {
	fields := []string{
		record.ID.String(),
		record.Scope,
		record.ScopeName,
		string(record.Permission),
		record.RequestedBy.Name,
		string(record.Status),
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// Flatten joins the groups' records into one slice in display order.
func Flatten(groups []model.PermissionRequestGroup) []model.PermissionRequestRecord {
	var records []model.PermissionRequestRecord
	for _, group := range groups {
		records = append(records, group.Requests...)
	}
	return records
}

// Page slices out the 1-based page of the given size. A size of zero or less
// falls back to DefaultPageSize. Out-of-range pages yield an empty slice.
func Page(records []model.PermissionRequestRecord, page, size int) []model.PermissionRequestRecord {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * size
	if start >= len(records) {
		return nil
	}
	end := start + size
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}

// PageCount is the number of pages needed for n records at the given size.
func PageCount(n, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if n == 0 {
		return 0
	}
	return (n + size - 1) / size
}

func bucketRange(now time.Time, bucket TimeBucket) (time.Time, time.Time) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	// Monday-based week start.
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	week := day.AddDate(0, 0, -(weekday - 1))

	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	year := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())

	switch bucket {
	case BucketToday:
		return day, day.AddDate(0, 0, 1)
	case BucketThisWeek:
		return week, week.AddDate(0, 0, 7)
	case BucketLastWeek:
		return week.AddDate(0, 0, -7), week
	case BucketThisMonth:
		return month, month.AddDate(0, 1, 0)
	case BucketLastMonth:
		return month.AddDate(0, -1, 0), month
	case BucketThisYear:
		return year, year.AddDate(1, 0, 0)
	case BucketLastYear:
		return year.AddDate(-1, 0, 0), year
	}

	// Unknown bucket matches nothing.
	return time.Time{}, time.Time{}
}

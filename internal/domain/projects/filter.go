package projects

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"

	"diamond-app-go/pkg/logger"
)

// Meta-status filter values and the "no selection" sentinel shared by the
// company/artist/drill-shape/year selectors.
const (
	StatusFilterActive     = "active"
	StatusFilterEverything = "everything"
	FilterAll              = "all"
)

// Filters is the dashboard filter state as supplied by the UI controls.
type Filters struct {
	UserID           string   `json:"user_id"`
	Status           string   `json:"status"`
	CompanyID        string   `json:"company_id"`
	ArtistID         string   `json:"artist_id"`
	DrillShape       string   `json:"drill_shape"`
	YearFinished     string   `json:"year_finished"`
	IncludeMiniKits  bool     `json:"include_mini_kits"`
	IncludeWishlist  bool     `json:"include_wishlist"`
	IncludeOnHold    bool     `json:"include_on_hold"`
	IncludeArchived  bool     `json:"include_archived"`
	IncludeDestashed bool     `json:"include_destashed"`
	SearchTerm       string   `json:"search_term"`
	SelectedTags     []string `json:"selected_tags"`
}

// Expression is a built filter: a conjunction of SQL clauses with @name
// placeholders, resolved by the driver's named-argument substitution. User
// input only ever travels through Params, never the SQL text itself.
type Expression struct {
	SQL    string
	Params map[string]any
}

// Fingerprint returns a stable hash of the expression, used as a cache-key
// component for list partitions.
func (e Expression) Fingerprint() string {
	h := fnv.New64a()
	h.Write([]byte(e.SQL))

	keys := make([]string, 0, len(e.Params))
	for key := range e.Params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(h, "|%s=%v", key, e.Params[key])
	}

	return strconv.FormatUint(h.Sum64(), 16)
}

// SyntaxCheck verifies the expression is structurally sound: balanced
// parentheses and balanced quotes. It reports rather than repairs; callers log
// a failure and proceed, letting the backend surface the real error.
func (e Expression) SyntaxCheck() error {
	depth := 0
	inSingle := false
	inDouble := false
	for _, ch := range e.SQL {
		switch ch {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case '(':
			if !inSingle && !inDouble {
				depth++
			}
		case ')':
			if !inSingle && !inDouble {
				depth--
				if depth < 0 {
					return fmt.Errorf("unbalanced parentheses")
				}
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("unbalanced parentheses")
	}
	if inSingle || inDouble {
		return fmt.Errorf("unbalanced quotes")
	}
	return nil
}

// FilterBuilder turns dashboard filter state into backend filter expressions.
// It never fails: malformed fragments are dropped with a logged warning and the
// remaining clauses still produce a valid expression.
type FilterBuilder struct {
	log logger.Logger
}

func NewFilterBuilder(log logger.Logger) *FilterBuilder {
	return &FilterBuilder{log: log}
}

// Build produces the full dashboard filter for f.
func (b *FilterBuilder) Build(f Filters) Expression {
	return b.build(f, f.Status, false)
}

// BuildExcludingStatus builds with the status selection replaced by
// overrideStatus (empty means no status clause at all) and, when skipFlags is
// set, without the include/exclude boolean clauses. Used by the status-count
// aggregation, which needs a status-agnostic base filter.
func (b *FilterBuilder) BuildExcludingStatus(f Filters, overrideStatus string, skipFlags bool) Expression {
	return b.build(f, overrideStatus, skipFlags)
}

func (b *FilterBuilder) build(f Filters, status string, skipFlags bool) Expression {
	clauses := make([]string, 0, 12)
	params := make(map[string]any, 12)

	// Owner scoping always comes first. A missing owner is a wiring defect:
	// scream about it, but never silently widen to all users elsewhere.
	if strings.TrimSpace(f.UserID) == "" {
		b.log.Warn("filter: no owner id present, building unscoped expression")
	} else {
		clauses = append(clauses, "user_id = @owner_id")
		params["owner_id"] = f.UserID
	}

	switch status {
	case "", StatusFilterEverything:
		// No direct status clause; the exclusion flags below take over.
	case StatusFilterActive:
		parts := make([]string, 0, len(activeStatuses))
		for i, active := range activeStatuses {
			name := fmt.Sprintf("active_%d", i)
			parts = append(parts, "status = @"+name)
			params[name] = string(active)
		}
		clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
	default:
		clauses = append(clauses, "status = @status")
		params["status"] = status
	}

	if f.CompanyID != "" && f.CompanyID != FilterAll {
		clauses = append(clauses, "company_id = @company_id")
		params["company_id"] = f.CompanyID
	}
	if f.ArtistID != "" && f.ArtistID != FilterAll {
		clauses = append(clauses, "artist_id = @artist_id")
		params["artist_id"] = f.ArtistID
	}
	if f.DrillShape != "" && f.DrillShape != FilterAll {
		clauses = append(clauses, "drill_shape = @drill_shape")
		params["drill_shape"] = f.DrillShape
	}

	if f.YearFinished != "" && f.YearFinished != FilterAll {
		year, err := strconv.Atoi(strings.TrimSpace(f.YearFinished))
		if err != nil || year < 1000 || year > 9999 {
			// Fail open: a bad year must not produce a malformed filter.
			b.log.Warn("filter: dropping invalid year_finished value", "value", f.YearFinished)
		} else {
			clauses = append(clauses, "date_completed >= @year_start", "date_completed <= @year_end")
			params["year_start"] = fmt.Sprintf("%04d-01-01", year)
			params["year_end"] = fmt.Sprintf("%04d-12-31", year)
		}
	}

	if !f.IncludeMiniKits {
		clauses = append(clauses, "(kit_category IS NULL OR kit_category <> @kit_mini)")
		params["kit_mini"] = KitCategoryMini
	}

	if !skipFlags {
		clauses, params = appendExclusionFlags(clauses, params, f, status)
	}

	term := strings.TrimSpace(f.SearchTerm)
	if term != "" {
		clauses = append(clauses, `title LIKE @search ESCAPE '\`+`'`)
		params["search"] = "%" + escapeLikePattern(term) + "%"
	}

	if len(f.SelectedTags) > 0 {
		parts := make([]string, 0, len(f.SelectedTags))
		for i, tagID := range f.SelectedTags {
			name := fmt.Sprintf("tag_%d", i)
			parts = append(parts, "id IN (SELECT project_id FROM project_tags WHERE tag_id = @"+name+")")
			params[name] = tagID
		}
		clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
	}

	expr := Expression{SQL: strings.Join(clauses, " AND "), Params: params}
	if err := expr.SyntaxCheck(); err != nil {
		b.log.Error("filter: built expression failed syntax self-check", "err", err, "sql", expr.SQL)
	}
	return expr
}

// appendExclusionFlags emits the include/exclude boolean clauses. Under
// "everything", only destashed and archived are excluded by default. For any
// concrete status selection each unset flag excludes its status, except that a
// status the user explicitly selected is immune to its own exclusion flag.
func appendExclusionFlags(clauses []string, params map[string]any, f Filters, status string) ([]string, map[string]any) {
	type flag struct {
		status  Status
		include bool
	}
	ordered := []flag{
		{StatusDestashed, f.IncludeDestashed},
		{StatusArchived, f.IncludeArchived},
		{StatusWishlist, f.IncludeWishlist},
		{StatusOnHold, f.IncludeOnHold},
	}

	everything := status == "" || status == StatusFilterEverything
	for _, entry := range ordered {
		if entry.include {
			continue
		}
		if everything && entry.status != StatusDestashed && entry.status != StatusArchived {
			continue
		}
		if !everything && status == string(entry.status) {
			continue
		}
		name := "excl_" + string(entry.status)
		clauses = append(clauses, "status <> @"+name)
		params[name] = string(entry.status)
	}
	return clauses, params
}

// escapeLikePattern escapes LIKE wildcards and the escape character itself so
// a search term matches literally. Quote characters never reach the SQL text;
// the term is bound through Params.
func escapeLikePattern(term string) string {
	var sb strings.Builder
	sb.Grow(len(term))
	for _, ch := range term {
		switch ch {
		case '\\', '%', '_':
			sb.WriteByte('\\')
		}
		sb.WriteRune(ch)
	}
	return sb.String()
}

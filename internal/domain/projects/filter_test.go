package projects

import (
	"strings"
	"testing"

	"diamond-app-go/pkg/logger"
)

func newTestBuilder() *FilterBuilder {
	return NewFilterBuilder(logger.Noop())
}

func TestBuildScopesOwnerFirst(t *testing.T) {
	expr := newTestBuilder().Build(Filters{UserID: "u1", Status: "completed"})

	if !strings.HasPrefix(expr.SQL, "user_id = @owner_id") {
		t.Fatalf("expected owner clause first, got %q", expr.SQL)
	}
	if expr.Params["owner_id"] != "u1" {
		t.Fatalf("expected owner param, got %v", expr.Params["owner_id"])
	}
}

func TestBuildWithoutOwnerOmitsScoping(t *testing.T) {
	expr := newTestBuilder().Build(Filters{Status: "completed"})

	if strings.Contains(expr.SQL, "owner_id") {
		t.Fatalf("expected no owner clause, got %q", expr.SQL)
	}
	if _, ok := expr.Params["owner_id"]; ok {
		t.Fatalf("expected no owner param")
	}
}

func TestActiveStatusBuildsOrGroup(t *testing.T) {
	expr := newTestBuilder().Build(Filters{UserID: "u1", Status: StatusFilterActive})

	for i, want := range []string{"purchased", "stash", "progress", "onhold"} {
		name := "active_" + string(rune('0'+i))
		if expr.Params[name] != want {
			t.Fatalf("expected %s=%s, got %v", name, want, expr.Params[name])
		}
	}
	if !strings.Contains(expr.SQL, "(status = @active_0 OR status = @active_1 OR status = @active_2 OR status = @active_3)") {
		t.Fatalf("expected active OR group, got %q", expr.SQL)
	}
}

func TestSelectedStatusImmuneToOwnExclusionFlag(t *testing.T) {
	expr := newTestBuilder().Build(Filters{UserID: "u1", Status: "wishlist"})

	if _, ok := expr.Params["excl_wishlist"]; ok {
		t.Fatalf("selected status must not be excluded by its own flag")
	}
	// The other unset flags still exclude their statuses.
	for _, name := range []string{"excl_destashed", "excl_archived", "excl_onhold"} {
		if _, ok := expr.Params[name]; !ok {
			t.Fatalf("expected %s exclusion, params %v", name, expr.Params)
		}
	}
}

func TestEverythingExcludesOnlyDestashedAndArchivedByDefault(t *testing.T) {
	expr := newTestBuilder().Build(Filters{UserID: "u1", Status: StatusFilterEverything})

	if _, ok := expr.Params["excl_destashed"]; !ok {
		t.Fatalf("expected destashed excluded under everything")
	}
	if _, ok := expr.Params["excl_archived"]; !ok {
		t.Fatalf("expected archived excluded under everything")
	}
	for _, name := range []string{"excl_wishlist", "excl_onhold"} {
		if _, ok := expr.Params[name]; ok {
			t.Fatalf("did not expect %s under everything", name)
		}
	}

	withArchived := newTestBuilder().Build(Filters{UserID: "u1", Status: StatusFilterEverything, IncludeArchived: true})
	if _, ok := withArchived.Params["excl_archived"]; ok {
		t.Fatalf("include_archived must lift the archived exclusion")
	}
}

func TestInvalidYearIsDropped(t *testing.T) {
	builder := newTestBuilder()

	bad := builder.Build(Filters{UserID: "u1", YearFinished: "20x5"})
	if _, ok := bad.Params["year_start"]; ok {
		t.Fatalf("expected invalid year to be dropped")
	}
	if err := bad.SyntaxCheck(); err != nil {
		t.Fatalf("expression must stay valid after dropping the year: %v", err)
	}

	good := builder.Build(Filters{UserID: "u1", YearFinished: "2024"})
	if good.Params["year_start"] != "2024-01-01" || good.Params["year_end"] != "2024-12-31" {
		t.Fatalf("expected 2024 range, got %v / %v", good.Params["year_start"], good.Params["year_end"])
	}
}

func TestMiniKitExclusionDefault(t *testing.T) {
	expr := newTestBuilder().Build(Filters{UserID: "u1"})
	if !strings.Contains(expr.SQL, "(kit_category IS NULL OR kit_category <> @kit_mini)") {
		t.Fatalf("expected mini-kit exclusion, got %q", expr.SQL)
	}

	included := newTestBuilder().Build(Filters{UserID: "u1", IncludeMiniKits: true})
	if strings.Contains(included.SQL, "kit_category") {
		t.Fatalf("did not expect mini-kit clause, got %q", included.SQL)
	}
}

func TestSearchTermIsEscapedAndParameterized(t *testing.T) {
	term := `100% "drill_art" o'brien \ set`
	expr := newTestBuilder().Build(Filters{UserID: "u1", SearchTerm: term})

	if strings.Contains(expr.SQL, "brien") {
		t.Fatalf("search term leaked into sql text: %q", expr.SQL)
	}
	search, ok := expr.Params["search"].(string)
	if !ok {
		t.Fatalf("expected search param")
	}
	if !strings.Contains(search, `100\%`) {
		t.Fatalf("expected %% escaped, got %q", search)
	}
	if !strings.Contains(search, `drill\_art`) {
		t.Fatalf("expected _ escaped, got %q", search)
	}
	if !strings.Contains(search, `\\`) {
		t.Fatalf("expected backslash escaped, got %q", search)
	}
	if err := expr.SyntaxCheck(); err != nil {
		t.Fatalf("expected balanced expression, got %v", err)
	}
}

func TestTagMembershipOrGroup(t *testing.T) {
	expr := newTestBuilder().Build(Filters{UserID: "u1", SelectedTags: []string{"t1", "t2"}})

	if expr.Params["tag_0"] != "t1" || expr.Params["tag_1"] != "t2" {
		t.Fatalf("expected tag params, got %v", expr.Params)
	}
	want := "(id IN (SELECT project_id FROM project_tags WHERE tag_id = @tag_0) OR id IN (SELECT project_id FROM project_tags WHERE tag_id = @tag_1))"
	if !strings.Contains(expr.SQL, want) {
		t.Fatalf("expected tag OR group, got %q", expr.SQL)
	}
}

func TestFingerprintIsDeterministic(t *testing.T) {
	f := Filters{UserID: "u1", Status: "progress", SearchTerm: "owl", SelectedTags: []string{"t1", "t2"}}
	builder := newTestBuilder()

	first := builder.Build(f).Fingerprint()
	second := builder.Build(f).Fingerprint()
	if first != second {
		t.Fatalf("identical filters must fingerprint identically: %s vs %s", first, second)
	}

	other := builder.Build(Filters{UserID: "u1", Status: "completed"}).Fingerprint()
	if other == first {
		t.Fatalf("different filters should not collide on fingerprint")
	}
}

func TestBuildExcludingStatusSkipsStatusAndFlags(t *testing.T) {
	f := Filters{UserID: "u1", Status: "wishlist", CompanyID: "c1", SelectedTags: []string{"t1"}}
	expr := newTestBuilder().BuildExcludingStatus(f, "", true)

	if strings.Contains(expr.SQL, "status") {
		t.Fatalf("expected status-agnostic expression, got %q", expr.SQL)
	}
	if expr.Params["company_id"] != "c1" {
		t.Fatalf("expected company clause retained, got %v", expr.Params)
	}
	if _, ok := expr.Params["tag_0"]; !ok {
		t.Fatalf("expected tag clause retained")
	}
}

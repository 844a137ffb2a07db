package projects

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestCSVRoundTrip(t *testing.T) {
	repo := newFakeRepo()
	width := 40.5
	height := 50.0
	shape := DrillShapeRound
	diamonds := int64(28900)
	completed := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)
	companyID := "c1"
	repo.companies[companyID] = "Dreamer Designs"
	repo.projects["p1"] = Project{
		ID:            "p1",
		UserID:        "u1",
		Title:         "Autumn Owl",
		Status:        StatusCompleted,
		CompanyID:     &companyID,
		Width:         &width,
		Height:        &height,
		DrillShape:    &shape,
		DateCompleted: &completed,
		GeneralNotes:  "gift for mom",
		TotalDiamonds: &diamonds,
	}
	svc := newTestService(repo)

	var out bytes.Buffer
	if err := svc.ExportCSV(context.Background(), "u1", &out); err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out.String(), "Autumn Owl") {
		t.Fatalf("expected exported row, got %q", out.String())
	}

	importRepo := newFakeRepo()
	importSvc := newTestService(importRepo)
	result, err := importSvc.ImportCSV(context.Background(), "u2", strings.NewReader(out.String()))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Created != 1 || len(result.Errors) != 0 {
		t.Fatalf("expected one clean import, got %+v", result)
	}

	created := importRepo.createdProjects[0]
	if created.Title != "Autumn Owl" || created.Status != StatusCompleted {
		t.Fatalf("unexpected imported project: %+v", created)
	}
	if created.Width == nil || *created.Width != 40.5 {
		t.Fatalf("expected width 40.5, got %v", created.Width)
	}
	if created.DateCompleted == nil || !created.DateCompleted.Equal(completed) {
		t.Fatalf("expected completion date preserved, got %v", created.DateCompleted)
	}
	if created.TotalDiamonds == nil || *created.TotalDiamonds != 28900 {
		t.Fatalf("expected diamonds preserved, got %v", created.TotalDiamonds)
	}
	if created.UserID != "u2" {
		t.Fatalf("imported rows belong to the importing user, got %s", created.UserID)
	}
	if name := importRepo.companies[*created.CompanyID]; name != "Dreamer Designs" {
		t.Fatalf("expected company auto-created on import, got %q", name)
	}
}

func TestImportCSVRecordsRowErrorsAndContinues(t *testing.T) {
	input := strings.Join([]string{
		"title,status,width",
		"Good One,progress,20",
		",progress,20",
		"Bad Status,limbo,20",
		"Bad Width,progress,zero",
		"Last Good,stash,",
	}, "\n")

	repo := newFakeRepo()
	svc := newTestService(repo)

	result, err := svc.ImportCSV(context.Background(), "u1", strings.NewReader(input))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Created != 2 {
		t.Fatalf("expected 2 created, got %d", result.Created)
	}
	if len(result.Errors) != 3 {
		t.Fatalf("expected 3 row errors, got %+v", result.Errors)
	}
	for _, rowErr := range result.Errors {
		if rowErr.Line < 2 {
			t.Fatalf("row errors must carry the file line, got %+v", rowErr)
		}
	}
}

func TestImportCSVRequiresTitleColumn(t *testing.T) {
	svc := newTestService(newFakeRepo())
	_, err := svc.ImportCSV(context.Background(), "u1", strings.NewReader("status,width\nprogress,20\n"))
	if err == nil {
		t.Fatalf("expected missing title column to fail the whole import")
	}
}

package projects

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

var csvHeader = []string{
	"title", "status", "company", "artist", "width", "height",
	"drill_shape", "kit_category", "date_purchased", "date_received",
	"date_started", "date_completed", "general_notes", "source_url",
	"total_diamonds", "tags",
}

const csvDateLayout = "2006-01-02"

// ExportCSV writes the user's complete collection as CSV. It rides on
// GetProjectsForExport, so pagination is disabled and company/artist/tags are
// always expanded.
func (s *Service) ExportCSV(ctx context.Context, userID string, w io.Writer) error {
	views, err := s.GetProjectsForExport(ctx, userID)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, view := range views {
		record := []string{
			view.Title,
			string(view.Status),
			view.CompanyName,
			view.ArtistName,
			formatFloat(view.Width),
			formatFloat(view.Height),
			stringOrEmpty(view.DrillShape),
			stringOrEmpty(view.KitCategory),
			formatDate(view.DatePurchased),
			formatDate(view.DateReceived),
			formatDate(view.DateStarted),
			formatDate(view.DateCompleted),
			view.GeneralNotes,
			stringOrEmpty(view.SourceURL),
			formatInt(view.TotalDiamonds),
			strings.Join(view.TagIDs, ";"),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ImportRowError reports one rejected CSV row; the rest of the file still
// imports.
type ImportRowError struct {
	Line int    `json:"line"`
	Err  string `json:"error"`
}

type ImportResult struct {
	Created int              `json:"created"`
	Errors  []ImportRowError `json:"errors"`
}

// ImportCSV reads projects from CSV and creates them one by one. A malformed
// row is recorded and skipped, never aborting the rest of the import.
func (s *Service) ImportCSV(ctx context.Context, userID string, r io.Reader) (*ImportResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingOwner
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["title"]; !ok {
		return nil, fmt.Errorf("csv is missing the title column")
	}

	result := &ImportResult{Errors: []ImportRowError{}}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Errors = append(result.Errors, ImportRowError{Line: line, Err: err.Error()})
			continue
		}

		input, err := rowToInput(userID, columns, record)
		if err != nil {
			result.Errors = append(result.Errors, ImportRowError{Line: line, Err: err.Error()})
			continue
		}
		if _, err := s.CreateProject(ctx, input); err != nil {
			result.Errors = append(result.Errors, ImportRowError{Line: line, Err: err.Error()})
			continue
		}
		result.Created++
	}
	return result, nil
}

func rowToInput(userID string, columns map[string]int, record []string) (CreateProjectInput, error) {
	field := func(name string) string {
		index, ok := columns[name]
		if !ok || index >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[index])
	}

	input := CreateProjectInput{
		UserID:       userID,
		Title:        field("title"),
		CompanyName:  field("company"),
		ArtistName:   field("artist"),
		GeneralNotes: field("general_notes"),
	}
	if input.Title == "" {
		return input, ErrTitleRequired
	}

	if value := field("status"); value != "" {
		status := Status(strings.ToLower(value))
		if !IsKnownStatus(status) {
			return input, fmt.Errorf("%w: %q", ErrInvalidStatus, value)
		}
		input.Status = status
	}

	var err error
	if input.Width, err = parseFloatField(field("width"), "width"); err != nil {
		return input, err
	}
	if input.Height, err = parseFloatField(field("height"), "height"); err != nil {
		return input, err
	}
	if value := field("drill_shape"); value != "" {
		shape := strings.ToLower(value)
		if shape != DrillShapeRound && shape != DrillShapeSquare {
			return input, fmt.Errorf("invalid drill_shape %q", value)
		}
		input.DrillShape = &shape
	}
	if value := field("kit_category"); value != "" {
		category := strings.ToLower(value)
		if category != KitCategoryFull && category != KitCategoryMini {
			return input, fmt.Errorf("invalid kit_category %q", value)
		}
		input.KitCategory = &category
	}

	if input.DatePurchased, err = parseDateField(field("date_purchased"), "date_purchased"); err != nil {
		return input, err
	}
	if input.DateReceived, err = parseDateField(field("date_received"), "date_received"); err != nil {
		return input, err
	}
	if input.DateStarted, err = parseDateField(field("date_started"), "date_started"); err != nil {
		return input, err
	}
	if input.DateCompleted, err = parseDateField(field("date_completed"), "date_completed"); err != nil {
		return input, err
	}

	if value := field("source_url"); value != "" {
		input.SourceURL = &value
	}
	if value := field("total_diamonds"); value != "" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed < 0 {
			return input, fmt.Errorf("invalid total_diamonds %q", value)
		}
		input.TotalDiamonds = &parsed
	}
	return input, nil
}

func parseFloatField(value, name string) (*float64, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed <= 0 {
		return nil, fmt.Errorf("invalid %s %q", name, value)
	}
	return &parsed, nil
}

func parseDateField(value, name string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(csvDateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", name, value)
	}
	return &parsed, nil
}

func formatDate(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.Format(csvDateLayout)
}

func formatFloat(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}

func formatInt(value *int64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatInt(*value, 10)
}

func stringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

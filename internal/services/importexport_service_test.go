package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/studyforge/practice-service/internal/events"
	"github.com/studyforge/practice-service/internal/models"
	"github.com/studyforge/practice-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

func newImportExportTestService(repo *mockRepository) ImportExportService {
	logger := newTestLogger()
	return NewImportExportService(repo, logger, newTestValidator(), events.NewMockEventPublisher(logger))
}

func TestImportExportRoundTrip(t *testing.T) {
	source := newMockRepository()
	source.users.admins["admin"] = true
	exporter := newImportExportTestService(source)
	ctx := context.Background()

	tag := "sheet-1"
	tasks := []*models.Task{
		{Kind: models.TaskKindOpen, PromptRef: "p1", CorrectAnswer: "12", Points: 4, SheetTag: &tag, CreatedBy: "admin"},
		{Kind: models.TaskKindClosed, PromptRef: "p2", CorrectAnswer: "B", Points: 1, CreatedBy: "admin"},
	}
	options, err := models.OptionList{"A", "B", "C"}.ToJSON()
	if err != nil {
		t.Fatalf("encode options: %v", err)
	}
	tasks[1].Options = options
	for _, task := range tasks {
		if err := source.tasks.Create(ctx, nil, task); err != nil {
			t.Fatalf("seed task: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := exporter.ExportTasks(ctx, &buf, repositories.TaskFilters{}, "admin"); err != nil {
		t.Fatalf("export: %v", err)
	}

	target := newMockRepository()
	target.users.admins["admin"] = true
	importer := newImportExportTestService(target)

	result, err := importer.ImportTasks(ctx, bytes.NewReader(buf.Bytes()), "admin")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Created != 2 || result.Skipped != 0 {
		t.Fatalf("expected 2 created / 0 skipped, got %d / %d", result.Created, result.Skipped)
	}

	imported, _, err := target.tasks.List(ctx, nil, repositories.TaskFilters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(imported) != 2 {
		t.Fatalf("expected 2 imported tasks, got %d", len(imported))
	}
	if imported[0].Kind != models.TaskKindOpen || imported[0].CorrectAnswer != "12" || imported[0].Points != 4 {
		t.Errorf("open task mangled in transit: %+v", imported[0])
	}
	if imported[0].SheetTag == nil || *imported[0].SheetTag != tag {
		t.Errorf("sheet tag lost: %v", imported[0].SheetTag)
	}
	decoded, err := imported[1].DecodedOptions()
	if err != nil {
		t.Fatalf("decode options: %v", err)
	}
	if len(decoded) != 3 || decoded[1] != "B" {
		t.Errorf("options mangled in transit: %v", decoded)
	}
}

func TestImportSkipsBadRows(t *testing.T) {
	repo := newMockRepository()
	repo.users.admins["admin"] = true
	svc := newImportExportTestService(repo)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	f.SetSheetName(sheet, "Tasks")
	rows := [][]interface{}{
		{"kind", "prompt_ref", "correct_answer", "options", "points", "sheet_tag"},
		{"open", "p1", "7", "", "2", ""},
		{"riddle", "p2", "x", "", "", ""},        // unknown kind
		{"closed", "p3", "Z", "A|B", "", ""},     // answer not among options
		{"closed", "p4", "A", "A|B", "1", "tag"}, // valid
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Tasks", cell, &row); err != nil {
			t.Fatalf("write row: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	result, err := svc.ImportTasks(context.Background(), &buf, "admin")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Created != 2 || result.Skipped != 2 {
		t.Fatalf("expected 2 created / 2 skipped, got %d / %d", result.Created, result.Skipped)
	}
	if len(result.RowErrors) != 2 {
		t.Fatalf("expected 2 row errors, got %d", len(result.RowErrors))
	}
	if result.RowErrors[0].Row != 3 || result.RowErrors[1].Row != 4 {
		t.Errorf("row numbers off: %+v", result.RowErrors)
	}
}

func TestImportRequiresAdmin(t *testing.T) {
	repo := newMockRepository()
	svc := newImportExportTestService(repo)

	if _, err := svc.ImportTasks(context.Background(), bytes.NewReader(nil), "student"); !IsPermissionError(err) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

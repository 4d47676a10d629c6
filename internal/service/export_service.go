package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/exam-slot-api/internal/models"
	appErrors "github.com/noah-isme/exam-slot-api/pkg/errors"
	"github.com/noah-isme/exam-slot-api/pkg/export"
)

// Export formats supported by the schedule export endpoint.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

type exportSlotRepo interface {
	ListAll(ctx context.Context) ([]models.ExamSlot, error)
	ListBySection(ctx context.Context, sectionID string) ([]models.ExamSlot, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.ExamSlot, error)
}

type exportStudentRepo interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListActiveBySection(ctx context.Context, sectionID string) ([]models.Student, error)
}

// ExportFile is a rendered document ready to stream to the client.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ExportService renders the schedule into downloadable documents and
// per-student calendar feeds.
type ExportService struct {
	slots    exportSlotRepo
	students exportStudentRepo
	sections scheduleSectionRepo
	csv      *export.CSVExporter
	xlsx     *export.XLSXExporter
	pdf      *export.PDFExporter
	ics      *export.ICSExporter
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(
	slots exportSlotRepo,
	students exportStudentRepo,
	sections scheduleSectionRepo,
	logger *zap.Logger,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		slots:    slots,
		students: students,
		sections: sections,
		csv:      export.NewCSVExporter(),
		xlsx:     export.NewXLSXExporter(),
		pdf:      export.NewPDFExporter(),
		ics:      export.NewICSExporter(),
		logger:   logger,
	}
}

var exportColumns = []string{"Student", "Email", "Section", "Cohort", "Exam", "Week", "Date", "Start", "End", "Status", "Locked"}

// Schedule renders the full schedule, or one section's, in the requested
// format.
func (s *ExportService) Schedule(ctx context.Context, sectionID, format string) (*ExportFile, error) {
	sections, err := s.sections.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load sections")
	}
	sectionsByID := make(map[string]models.Section, len(sections))
	for _, section := range sections {
		sectionsByID[section.ID] = section
	}

	scope := "schedule"
	var slots []models.ExamSlot
	if sectionID != "" {
		section, ok := sectionsByID[sectionID]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		scope = section.Code
		slots, err = s.slots.ListBySection(ctx, sectionID)
	} else {
		slots, err = s.slots.ListAll(ctx)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load slots")
	}

	students := make(map[string]models.Student)
	for id := range sectionsByID {
		if sectionID != "" && id != sectionID {
			continue
		}
		roster, err := s.students.ListActiveBySection(ctx, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load students")
		}
		for _, student := range roster {
			students[student.ID] = student
		}
	}

	table := export.Table{Columns: exportColumns}
	for _, slot := range slots {
		student := students[slot.StudentID]
		section := sectionsByID[slot.SectionID]

		var cohort, date, start, end string
		if student.Cohort != nil {
			cohort = string(*student.Cohort)
		}
		if slot.Date != nil {
			date = slot.Date.Format("2006-01-02")
		}
		if slot.StartMinute != nil {
			start = models.MinuteToClock(*slot.StartMinute)
		}
		if slot.EndMinute != nil {
			end = models.MinuteToClock(*slot.EndMinute)
		}
		status := "unscheduled"
		if slot.Scheduled {
			status = "scheduled"
		}
		locked := "no"
		if slot.Locked {
			locked = "yes"
		}

		table.Rows = append(table.Rows, []string{
			student.FullName,
			student.Email,
			section.Code,
			cohort,
			fmt.Sprintf("%d", slot.ExamNumber),
			fmt.Sprintf("%d", slot.WeekNumber),
			date,
			start,
			end,
			status,
			locked,
		})
	}

	switch format {
	case FormatCSV, "":
		data, err := s.csv.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to render csv")
		}
		return &ExportFile{Name: scope + ".csv", ContentType: "text/csv", Data: data}, nil
	case FormatXLSX:
		data, err := s.xlsx.Render("Schedule", table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to render xlsx")
		}
		return &ExportFile{Name: scope + ".xlsx", ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Data: data}, nil
	case FormatPDF:
		data, err := s.pdf.Render(table, "Exam Schedule "+scope)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to render pdf")
		}
		return &ExportFile{Name: scope + ".pdf", ContentType: "application/pdf", Data: data}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

// StudentCalendar renders a student's scheduled slots as an iCalendar feed
// they can subscribe to.
func (s *ExportService) StudentCalendar(ctx context.Context, studentID string) (*ExportFile, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load student")
	}

	slots, err := s.slots.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load slots")
	}

	var events []export.CalendarEvent
	for _, slot := range slots {
		if !slot.Scheduled || slot.Date == nil || slot.StartMinute == nil || slot.EndMinute == nil {
			continue
		}
		day := *slot.Date
		start := time.Date(day.Year(), day.Month(), day.Day(), *slot.StartMinute/60, *slot.StartMinute%60, 0, 0, time.UTC)
		end := time.Date(day.Year(), day.Month(), day.Day(), *slot.EndMinute/60, *slot.EndMinute%60, 0, 0, time.UTC)
		events = append(events, export.CalendarEvent{
			UID:         slot.ID,
			Summary:     fmt.Sprintf("Oral exam %d", slot.ExamNumber),
			Description: fmt.Sprintf("Exam %d, week %d", slot.ExamNumber, slot.WeekNumber),
			Start:       start,
			End:         end,
		})
	}

	data, err := s.ics.Render("Exam schedule for "+student.FullName, events)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to render calendar")
	}
	return &ExportFile{Name: "exams.ics", ContentType: "text/calendar", Data: data}, nil
}

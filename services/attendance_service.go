package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/schoolpulse/api/model"
	"github.com/schoolpulse/api/utils/validation"
)

// AttendanceService records daily per-subject attendance. One row
// exists per (student, subject, date) triple; re-marking the same
// triple overwrites the previous status.
type AttendanceService struct {
	db *gorm.DB
}

func NewAttendanceService(db *gorm.DB) *AttendanceService {
	return &AttendanceService{db: db}
}

type AttendanceInput struct {
	StudentID uint   `json:"studentId" validate:"required"`
	SubjectID uint   `json:"subjectId" validate:"required"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Status    string `json:"status" validate:"required,oneof=Present Absent Late Excused"`
	Remarks   string `json:"remarks" validate:"omitempty,max=500"`
	TeacherID *uint  `json:"teacherId"`
}

type BulkAttendanceInput struct {
	SubjectID uint        `json:"subjectId" validate:"required"`
	Date      string      `json:"date" validate:"required,datetime=2006-01-02"`
	TeacherID *uint       `json:"teacherId"`
	Entries   []BulkEntry `json:"entries" validate:"required,min=1,dive"`
}

type BulkEntry struct {
	StudentID uint   `json:"studentId" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=Present Absent Late Excused"`
	Remarks   string `json:"remarks" validate:"omitempty,max=500"`
}

type UpdateAttendanceInput struct {
	Status  *string `json:"status" validate:"omitempty,oneof=Present Absent Late Excused"`
	Remarks *string `json:"remarks" validate:"omitempty,max=500"`
}

// AttendanceFilter narrows List.
type AttendanceFilter struct {
	StudentID *uint
	SubjectID *uint
	Status    *string
	From      *string
	To        *string
	Month     *string // YYYY-MM
}

// AttendanceStats summarizes one student's attendance.
type AttendanceStats struct {
	StudentID   uint    `json:"studentId"`
	TotalDays   int64   `json:"totalDays"`
	PresentDays int64   `json:"presentDays"`
	AbsentDays  int64   `json:"absentDays"`
	LateDays    int64   `json:"lateDays"`
	ExcusedDays int64   `json:"excusedDays"`
	PresentRate float64 `json:"presentRate"`
}

// Upsert inserts or overwrites the attendance row for the triple.
func (s *AttendanceService) Upsert(ctx context.Context, input AttendanceInput) (*model.Attendance, bool, error) {
	if err := validation.ValidateStruct(input); err != nil {
		return nil, false, FieldErrors(validation.FormatValidationErrors(err))
	}
	date, err := parseDate(input.Date)
	if err != nil {
		return nil, false, FieldErrors{"date": "date must be in YYYY-MM-DD format"}
	}

	var out model.Attendance
	var created bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureStudent(tx, input.StudentID); err != nil {
			return err
		}
		if err := ensureSubject(tx, input.SubjectID); err != nil {
			return err
		}
		c, err := upsertAttendanceRow(tx, &out, input.StudentID, input.SubjectID, date,
			model.AttendanceStatus(input.Status), input.Remarks, input.TeacherID)
		created = c
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return &out, created, nil
}

// BulkUpsert marks a whole class for one subject and date. Returns how
// many rows were created and how many overwritten. The batch is
// all-or-nothing.
func (s *AttendanceService) BulkUpsert(ctx context.Context, input BulkAttendanceInput) (createdCount, updatedCount int, err error) {
	if err := validation.ValidateStruct(input); err != nil {
		return 0, 0, FieldErrors(validation.FormatValidationErrors(err))
	}
	date, err := parseDate(input.Date)
	if err != nil {
		return 0, 0, FieldErrors{"date": "date must be in YYYY-MM-DD format"}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureSubject(tx, input.SubjectID); err != nil {
			return err
		}
		for _, entry := range input.Entries {
			if err := ensureStudent(tx, entry.StudentID); err != nil {
				return err
			}
			var row model.Attendance
			created, err := upsertAttendanceRow(tx, &row, entry.StudentID, input.SubjectID, date,
				model.AttendanceStatus(entry.Status), entry.Remarks, input.TeacherID)
			if err != nil {
				return err
			}
			if created {
				createdCount++
			} else {
				updatedCount++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return createdCount, updatedCount, nil
}

func upsertAttendanceRow(tx *gorm.DB, out *model.Attendance, studentID, subjectID uint,
	date datatypes.Date, status model.AttendanceStatus, remarks string, teacherID *uint) (bool, error) {

	err := tx.Where("student_id = ? AND subject_id = ? AND attendance_date = ?",
		studentID, subjectID, date).First(out).Error
	switch {
	case err == nil:
		out.Status = status
		out.Remarks = remarks
		if teacherID != nil {
			out.TeacherID = teacherID
		}
		return false, tx.Save(out).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		*out = model.Attendance{
			StudentID: studentID,
			SubjectID: subjectID,
			Date:      date,
			Status:    status,
			Remarks:   remarks,
			TeacherID: teacherID,
		}
		return true, tx.Create(out).Error
	default:
		return false, err
	}
}

// Update changes status or remarks of one attendance row by ID.
func (s *AttendanceService) Update(ctx context.Context, attendanceID uint, input UpdateAttendanceInput) (*model.Attendance, error) {
	if err := validation.ValidateStruct(input); err != nil {
		return nil, FieldErrors(validation.FormatValidationErrors(err))
	}

	var row model.Attendance
	if err := s.db.WithContext(ctx).First(&row, attendanceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: attendance %d", ErrNotFound, attendanceID)
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Status != nil {
		updates["status"] = *input.Status
	}
	if input.Remarks != nil {
		updates["remarks"] = *input.Remarks
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&row).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &row, nil
}

// Delete removes one attendance row.
func (s *AttendanceService) Delete(ctx context.Context, attendanceID uint) error {
	result := s.db.WithContext(ctx).Delete(&model.Attendance{}, attendanceID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: attendance %d", ErrNotFound, attendanceID)
	}
	return nil
}

// List returns attendance rows matching the filter, newest date first.
func (s *AttendanceService) List(ctx context.Context, filter AttendanceFilter, offset, limit int) ([]model.Attendance, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.Attendance{})
	query, err := applyAttendanceFilter(query, filter)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.Attendance
	err = query.
		Preload("Student").
		Preload("Student.User").
		Preload("Subject").
		Order("attendance_date DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// DayStats summarizes one day's attendance. Rate is rounded to 1 dp.
type DayStats struct {
	Date        string  `json:"date"`
	Total       int64   `json:"total"`
	Present     int64   `json:"present"`
	Absent      int64   `json:"absent"`
	Late        int64   `json:"late"`
	Excused     int64   `json:"excused"`
	PresentRate float64 `json:"presentRate"`
}

// ByDate lists attendance on one date, optionally limited to a subject,
// together with the day's statistics.
func (s *AttendanceService) ByDate(ctx context.Context, dateStr string, subjectID *uint) ([]model.Attendance, *DayStats, error) {
	date, err := parseDate(dateStr)
	if err != nil {
		return nil, nil, FieldErrors{"date": "date must be in YYYY-MM-DD format"}
	}

	query := s.db.WithContext(ctx).Where("attendance_date = ?", date)
	if subjectID != nil {
		query = query.Where("subject_id = ?", *subjectID)
	}

	var rows []model.Attendance
	err = query.
		Preload("Student").
		Preload("Student.User").
		Preload("Subject").
		Order("student_id").
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}

	stats := &DayStats{Date: dateStr, Total: int64(len(rows))}
	for _, row := range rows {
		switch row.Status {
		case model.AttendancePresent:
			stats.Present++
		case model.AttendanceAbsent:
			stats.Absent++
		case model.AttendanceLate:
			stats.Late++
		case model.AttendanceExcused:
			stats.Excused++
		}
	}
	if stats.Total > 0 {
		stats.PresentRate = roundTo1(float64(stats.Present) / float64(stats.Total) * 100)
	}
	return rows, stats, nil
}

// Statistics summarizes one student's attendance, optionally limited to
// a YYYY-MM month or to one subject. A student with no rows reports
// zero across the board.
func (s *AttendanceService) Statistics(ctx context.Context, studentID uint, subjectID *uint, month *string) (*AttendanceStats, error) {
	if err := ensureStudent(s.db.WithContext(ctx), studentID); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&model.Attendance{}).Where("student_id = ?", studentID)
	if subjectID != nil {
		query = query.Where("subject_id = ?", *subjectID)
	}
	if month != nil {
		start, end, err := monthRange(*month)
		if err != nil {
			return nil, FieldErrors{"month": "month must be in YYYY-MM format"}
		}
		query = query.Where("attendance_date >= ? AND attendance_date < ?", start, end)
	}

	type counts struct {
		Total   int64
		Present int64
		Absent  int64
		Late    int64
		Excused int64
	}
	var c counts
	err := query.Select(
		"COUNT(*) AS total, " +
			"SUM(CASE WHEN status = 'Present' THEN 1 ELSE 0 END) AS present, " +
			"SUM(CASE WHEN status = 'Absent' THEN 1 ELSE 0 END) AS absent, " +
			"SUM(CASE WHEN status = 'Late' THEN 1 ELSE 0 END) AS late, " +
			"SUM(CASE WHEN status = 'Excused' THEN 1 ELSE 0 END) AS excused").
		Scan(&c).Error
	if err != nil {
		return nil, err
	}

	stats := &AttendanceStats{
		StudentID:   studentID,
		TotalDays:   c.Total,
		PresentDays: c.Present,
		AbsentDays:  c.Absent,
		LateDays:    c.Late,
		ExcusedDays: c.Excused,
	}
	if c.Total > 0 {
		stats.PresentRate = roundTo2(float64(c.Present) / float64(c.Total) * 100)
	}
	return stats, nil
}

// AvailableMonths lists the distinct YYYY-MM months a student has
// attendance in, newest first.
func (s *AttendanceService) AvailableMonths(ctx context.Context, studentID uint) ([]string, error) {
	if err := ensureStudent(s.db.WithContext(ctx), studentID); err != nil {
		return nil, err
	}

	var dates []time.Time
	err := s.db.WithContext(ctx).Model(&model.Attendance{}).
		Where("student_id = ?", studentID).
		Order("attendance_date DESC").
		Pluck("attendance_date", &dates).Error
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	months := []string{}
	for _, d := range dates {
		m := d.Format("2006-01")
		if !seen[m] {
			seen[m] = true
			months = append(months, m)
		}
	}
	return months, nil
}

func applyAttendanceFilter(query *gorm.DB, filter AttendanceFilter) (*gorm.DB, error) {
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.SubjectID != nil {
		query = query.Where("subject_id = ?", *filter.SubjectID)
	}
	if filter.Status != nil {
		if !model.AttendanceStatus(*filter.Status).Valid() {
			return nil, FieldErrors{"status": "status must be Present, Absent, Late or Excused"}
		}
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Month != nil {
		start, end, err := monthRange(*filter.Month)
		if err != nil {
			return nil, FieldErrors{"month": "month must be in YYYY-MM format"}
		}
		query = query.Where("attendance_date >= ? AND attendance_date < ?", start, end)
	}
	if filter.From != nil {
		d, err := parseDate(*filter.From)
		if err != nil {
			return nil, FieldErrors{"from": "date must be in YYYY-MM-DD format"}
		}
		query = query.Where("attendance_date >= ?", d)
	}
	if filter.To != nil {
		d, err := parseDate(*filter.To)
		if err != nil {
			return nil, FieldErrors{"to": "date must be in YYYY-MM-DD format"}
		}
		query = query.Where("attendance_date <= ?", d)
	}
	return query, nil
}

// monthRange converts YYYY-MM to a half-open [start, end) date range.
func monthRange(month string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 1, 0), nil
}

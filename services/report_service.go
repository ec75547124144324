package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/schoolpulse/api/model"
)

// ReportService answers read-only aggregation queries over results and
// attendance. All averages are rounded in Go through one helper and a
// zero-row aggregate reports 0, never NaN.
type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// StudentAverage is one row of a per-student performance aggregate.
type StudentAverage struct {
	StudentID     uint    `json:"studentId"`
	StudentName   string  `json:"studentName"`
	StudentNumber string  `json:"studentNumber"`
	Grade         string  `json:"grade"`
	Section       string  `json:"section"`
	AverageMarks  float64 `json:"averageMarks"`
	TotalTests    int64   `json:"totalTests"`
	HighestMarks  int     `json:"highestMarks"`
	LowestMarks   int     `json:"lowestMarks"`
}

// SubjectBreakdown is one subject's slice of a student's performance.
type SubjectBreakdown struct {
	SubjectID    uint    `json:"subjectId"`
	SubjectName  string  `json:"subjectName"`
	AverageMarks float64 `json:"averageMarks"`
	TotalTests   int64   `json:"totalTests"`
	HighestMarks int     `json:"highestMarks"`
	LowestMarks  int     `json:"lowestMarks"`
}

// AttendanceReportRow is one student's attendance rollup.
type AttendanceReportRow struct {
	StudentID     uint    `json:"studentId"`
	StudentName   string  `json:"studentName"`
	StudentNumber string  `json:"studentNumber"`
	TotalDays     int64   `json:"totalDays"`
	PresentDays   int64   `json:"presentDays"`
	AbsentDays    int64   `json:"absentDays"`
	LateDays      int64   `json:"lateDays"`
	PresentRate   float64 `json:"presentRate"`
}

// ClassReport aggregates exam performance for one class.
type ClassReport struct {
	Class        int              `json:"class"`
	ClassAverage float64          `json:"classAverage"`
	Students     []StudentAverage `json:"students"`
}

// StudentPerformance is the per-student dashboard aggregate.
type StudentPerformance struct {
	StudentID     uint                      `json:"studentId"`
	AverageMarks  float64                   `json:"averageMarks"`
	TotalTests    int64                     `json:"totalTests"`
	Subjects      []SubjectBreakdown        `json:"subjects"`
	RecentResults []model.StudentTestResult `json:"recentResults"`
}

// ComprehensiveReport combines results history, attendance and summary
// figures for one student.
type ComprehensiveReport struct {
	Student           model.Student             `json:"student"`
	Results           []model.StudentTestResult `json:"results"`
	SubjectAttendance []SubjectAttendanceRow    `json:"subjectAttendance"`
	Summary           ReportSummary             `json:"summary"`
}

// SubjectAttendanceRow is one subject's attendance rollup for a student.
type SubjectAttendanceRow struct {
	SubjectID   uint    `json:"subjectId"`
	SubjectName string  `json:"subjectName"`
	TotalDays   int64   `json:"totalDays"`
	PresentDays int64   `json:"presentDays"`
	PresentRate float64 `json:"presentRate"`
}

type ReportSummary struct {
	AverageMarks      float64 `json:"averageMarks"`
	HighestMarks      int     `json:"highestMarks"`
	LowestMarks       int     `json:"lowestMarks"`
	TotalTests        int64   `json:"totalTests"`
	OverallAttendance float64 `json:"overallAttendance"`
}

const studentAverageSelect = "students.id AS student_id, users.name AS student_name, " +
	"students.student_number, students.grade_label AS grade, students.section, " +
	"AVG(student_test_results.marks_obtained) AS average_marks, " +
	"COUNT(student_test_results.id) AS total_tests, " +
	"MAX(student_test_results.marks_obtained) AS highest_marks, " +
	"MIN(student_test_results.marks_obtained) AS lowest_marks"

// OverallPerformance aggregates every student's results, optionally
// keeping only students at or above a minimum average.
func (s *ReportService) OverallPerformance(ctx context.Context, minAverage *float64) ([]StudentAverage, error) {
	query := s.db.WithContext(ctx).
		Table("student_test_results").
		Select(studentAverageSelect).
		Joins("JOIN students ON students.id = student_test_results.student_id").
		Joins("JOIN users ON users.id = students.user_id").
		Group("students.id, users.name, students.student_number, students.grade_label, students.section")
	if minAverage != nil {
		query = query.Having("AVG(student_test_results.marks_obtained) >= ?", *minAverage)
	}

	var rows []StudentAverage
	if err := query.Order("average_marks DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	roundAverages(rows)
	return rows, nil
}

// SubjectPerformance aggregates per-student results for one subject.
func (s *ReportService) SubjectPerformance(ctx context.Context, subjectID uint) ([]StudentAverage, error) {
	if err := ensureSubject(s.db.WithContext(ctx), subjectID); err != nil {
		return nil, err
	}

	var rows []StudentAverage
	err := s.db.WithContext(ctx).
		Table("student_test_results").
		Select(studentAverageSelect).
		Joins("JOIN tests ON tests.id = student_test_results.test_id").
		Joins("JOIN students ON students.id = student_test_results.student_id").
		Joins("JOIN users ON users.id = students.user_id").
		Where("tests.subject_id = ?", subjectID).
		Group("students.id, users.name, students.student_number, students.grade_label, students.section").
		Order("average_marks DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	roundAverages(rows)
	return rows, nil
}

// AttendanceReport rolls up per-student attendance over an optional
// date range.
func (s *ReportService) AttendanceReport(ctx context.Context, from, to *string) ([]AttendanceReportRow, error) {
	query := s.db.WithContext(ctx).
		Table("attendance").
		Select("students.id AS student_id, users.name AS student_name, " +
			"students.student_number, " +
			"COUNT(attendance.id) AS total_days, " +
			"SUM(CASE WHEN attendance.status = 'Present' THEN 1 ELSE 0 END) AS present_days, " +
			"SUM(CASE WHEN attendance.status = 'Absent' THEN 1 ELSE 0 END) AS absent_days, " +
			"SUM(CASE WHEN attendance.status = 'Late' THEN 1 ELSE 0 END) AS late_days").
		Joins("JOIN students ON students.id = attendance.student_id").
		Joins("JOIN users ON users.id = students.user_id").
		Group("students.id, users.name, students.student_number")
	if from != nil {
		d, err := parseDate(*from)
		if err != nil {
			return nil, FieldErrors{"from": "date must be in YYYY-MM-DD format"}
		}
		query = query.Where("attendance.attendance_date >= ?", d)
	}
	if to != nil {
		d, err := parseDate(*to)
		if err != nil {
			return nil, FieldErrors{"to": "date must be in YYYY-MM-DD format"}
		}
		query = query.Where("attendance.attendance_date <= ?", d)
	}

	var rows []AttendanceReportRow
	if err := query.Order("student_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].TotalDays > 0 {
			rows[i].PresentRate = roundTo2(float64(rows[i].PresentDays) / float64(rows[i].TotalDays) * 100)
		}
	}
	return rows, nil
}

// ClassReportFor aggregates exam results of one class, students ordered
// by average descending.
func (s *ReportService) ClassReportFor(ctx context.Context, class int) (*ClassReport, error) {
	var rows []StudentAverage
	err := s.db.WithContext(ctx).
		Table("student_test_results").
		Select(studentAverageSelect).
		Joins("JOIN tests ON tests.id = student_test_results.test_id").
		Joins("JOIN exams ON exams.test_id = tests.id").
		Joins("JOIN students ON students.id = student_test_results.student_id").
		Joins("JOIN users ON users.id = students.user_id").
		Where("exams.class = ?", class).
		Group("students.id, users.name, students.student_number, students.grade_label, students.section").
		Order("average_marks DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	roundAverages(rows)

	report := &ClassReport{Class: class, Students: rows}
	if len(rows) > 0 {
		var sum float64
		for _, row := range rows {
			sum += row.AverageMarks
		}
		report.ClassAverage = roundTo2(sum / float64(len(rows)))
	}
	return report, nil
}

// StudentPerformanceFor builds the per-student dashboard aggregate.
func (s *ReportService) StudentPerformanceFor(ctx context.Context, studentID uint) (*StudentPerformance, error) {
	if err := ensureStudent(s.db.WithContext(ctx), studentID); err != nil {
		return nil, err
	}

	perf := &StudentPerformance{StudentID: studentID}

	type overall struct {
		Average float64
		Total   int64
	}
	var o overall
	err := s.db.WithContext(ctx).
		Table("student_test_results").
		Select("AVG(marks_obtained) AS average, COUNT(id) AS total").
		Where("student_id = ?", studentID).
		Scan(&o).Error
	if err != nil {
		return nil, err
	}
	perf.TotalTests = o.Total
	if o.Total > 0 {
		perf.AverageMarks = roundTo2(o.Average)
	}

	subjects, err := s.subjectBreakdown(ctx, studentID)
	if err != nil {
		return nil, err
	}
	perf.Subjects = subjects

	var recent []model.StudentTestResult
	err = s.db.WithContext(ctx).
		Preload("Test").
		Preload("Test.Subject").
		Joins("JOIN tests ON tests.id = student_test_results.test_id").
		Where("student_test_results.student_id = ?", studentID).
		Order("tests.date DESC, student_test_results.id DESC").
		Limit(10).
		Find(&recent).Error
	if err != nil {
		return nil, err
	}
	perf.RecentResults = recent

	return perf, nil
}

// ComprehensiveReportFor combines a student's result history, attendance
// rollups and summary figures.
func (s *ReportService) ComprehensiveReportFor(ctx context.Context, studentID uint) (*ComprehensiveReport, error) {
	var student model.Student
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("GradeLevel").
		First(&student, studentID).Error
	if err != nil {
		return nil, errStudentNotFound(err, studentID)
	}

	report := &ComprehensiveReport{Student: student}

	err = s.db.WithContext(ctx).
		Preload("Test").
		Preload("Test.Subject").
		Preload("Test.Exam").
		Preload("Test.NonAcademic").
		Joins("JOIN tests ON tests.id = student_test_results.test_id").
		Where("student_test_results.student_id = ?", studentID).
		Order("tests.date DESC, student_test_results.id DESC").
		Find(&report.Results).Error
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Table("attendance").
		Select("subjects.id AS subject_id, subjects.name AS subject_name, "+
			"COUNT(attendance.id) AS total_days, "+
			"SUM(CASE WHEN attendance.status = 'Present' THEN 1 ELSE 0 END) AS present_days").
		Joins("JOIN subjects ON subjects.id = attendance.subject_id").
		Where("attendance.student_id = ?", studentID).
		Group("subjects.id, subjects.name").
		Order("subjects.id").
		Scan(&report.SubjectAttendance).Error
	if err != nil {
		return nil, err
	}
	for i := range report.SubjectAttendance {
		row := &report.SubjectAttendance[i]
		if row.TotalDays > 0 {
			row.PresentRate = roundTo2(float64(row.PresentDays) / float64(row.TotalDays) * 100)
		}
	}

	type summaryRow struct {
		Average float64
		Highest int
		Lowest  int
		Total   int64
	}
	var sr summaryRow
	err = s.db.WithContext(ctx).
		Table("student_test_results").
		Select("AVG(marks_obtained) AS average, MAX(marks_obtained) AS highest, "+
			"MIN(marks_obtained) AS lowest, COUNT(id) AS total").
		Where("student_id = ?", studentID).
		Scan(&sr).Error
	if err != nil {
		return nil, err
	}
	report.Summary = ReportSummary{
		HighestMarks: sr.Highest,
		LowestMarks:  sr.Lowest,
		TotalTests:   sr.Total,
	}
	if sr.Total > 0 {
		report.Summary.AverageMarks = roundTo2(sr.Average)
	}

	type attTotals struct {
		Total   int64
		Present int64
	}
	var at attTotals
	err = s.db.WithContext(ctx).
		Table("attendance").
		Select("COUNT(id) AS total, SUM(CASE WHEN status = 'Present' THEN 1 ELSE 0 END) AS present").
		Where("student_id = ?", studentID).
		Scan(&at).Error
	if err != nil {
		return nil, err
	}
	if at.Total > 0 {
		report.Summary.OverallAttendance = roundTo2(float64(at.Present) / float64(at.Total) * 100)
	}

	return report, nil
}

// TopPerformers returns the highest-averaging students.
func (s *ReportService) TopPerformers(ctx context.Context, limit int) ([]StudentAverage, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.OverallPerformance(ctx, nil)
	if err != nil {
		return nil, err
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// StrugglingStudents returns students averaging below the threshold,
// lowest first.
func (s *ReportService) StrugglingStudents(ctx context.Context, threshold float64) ([]StudentAverage, error) {
	rows, err := s.OverallPerformance(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := make([]StudentAverage, 0)
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].AverageMarks < threshold {
			out = append(out, rows[i])
		}
	}
	return out, nil
}

func (s *ReportService) subjectBreakdown(ctx context.Context, studentID uint) ([]SubjectBreakdown, error) {
	var rows []SubjectBreakdown
	err := s.db.WithContext(ctx).
		Table("student_test_results").
		Select("subjects.id AS subject_id, subjects.name AS subject_name, "+
			"AVG(student_test_results.marks_obtained) AS average_marks, "+
			"COUNT(student_test_results.id) AS total_tests, "+
			"MAX(student_test_results.marks_obtained) AS highest_marks, "+
			"MIN(student_test_results.marks_obtained) AS lowest_marks").
		Joins("JOIN tests ON tests.id = student_test_results.test_id").
		Joins("JOIN subjects ON subjects.id = tests.subject_id").
		Where("student_test_results.student_id = ?", studentID).
		Group("subjects.id, subjects.name").
		Order("subjects.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].AverageMarks = roundTo2(rows[i].AverageMarks)
	}
	return rows, nil
}

func roundAverages(rows []StudentAverage) {
	for i := range rows {
		rows[i].AverageMarks = roundTo2(rows[i].AverageMarks)
	}
}

func errStudentNotFound(err error, studentID uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: student %d", ErrNotFound, studentID)
	}
	return err
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}

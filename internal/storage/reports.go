package storage

import (
	"database/sql"
	"fmt"
	"time"
)

const reportColumns = `id, title, report_type, summary, content, data_range_start, data_range_end,
	ai_generated, generated_by, file_url, view_count, status, created_at`

// CreateReport inserts a new report document. An empty status defaults to
// 'published'.
func (s *Store) CreateReport(rep Report) error {
	now := time.Now().UTC().Format(time.RFC3339)
	status := rep.Status
	if status == "" {
		status = "published"
	}
	_, err := s.db.Exec(`
		INSERT INTO reports (id, title, report_type, summary, content, data_range_start, data_range_end,
			ai_generated, generated_by, file_url, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.ID, rep.Title, rep.ReportType, rep.Summary, rep.Content, rep.DataRangeStart, rep.DataRangeEnd,
		rep.AIGenerated, rep.GeneratedBy, rep.FileURL, status, now,
	)
	return err
}

func (s *Store) GetReport(id string) (Report, error) {
	row := s.db.QueryRow("SELECT "+reportColumns+" FROM reports WHERE id = ?", id)
	return scanReport(row)
}

// ViewReport records one read of a report and returns it with the bumped
// view count. Returns ErrNotFound if the id does not exist.
func (s *Store) ViewReport(id string) (Report, error) {
	res, err := s.db.Exec("UPDATE reports SET view_count = view_count + 1 WHERE id = ?", id)
	if err != nil {
		return Report{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Report{}, err
	}
	if n == 0 {
		return Report{}, ErrNotFound
	}
	return s.GetReport(id)
}

// ReportFilter narrows and pages ListReports. Empty string fields match all
// reports; Page and Limit below 1 select the first page of 20.
type ReportFilter struct {
	Type   string
	Status string
	Page   int
	Limit  int
}

// ListReports returns one page of reports ordered by creation time, newest
// first, along with the total match count for the filter.
func (s *Store) ListReports(f ReportFilter) (ReportPage, error) {
	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = 20
	}

	where := ""
	args := []interface{}{}
	if f.Type != "" {
		where = " WHERE report_type = ?"
		args = append(args, f.Type)
	}
	if f.Status != "" {
		if where == "" {
			where = " WHERE status = ?"
		} else {
			where += " AND status = ?"
		}
		args = append(args, f.Status)
	}

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM reports"+where, args...).Scan(&total); err != nil {
		return ReportPage{}, err
	}

	rows, err := s.db.Query(
		"SELECT "+reportColumns+" FROM reports"+where+" ORDER BY created_at DESC, id LIMIT ? OFFSET ?",
		append(args, limit, (page-1)*limit)...,
	)
	if err != nil {
		return ReportPage{}, err
	}
	defer rows.Close()

	result := ReportPage{
		Reports:    []Report{},
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return ReportPage{}, err
		}
		result.Reports = append(result.Reports, rep)
	}
	return result, rows.Err()
}

func (s *Store) DeleteReport(id string) error {
	res, err := s.db.Exec("DELETE FROM reports WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanReport(row rowScanner) (Report, error) {
	var rep Report
	var createdAt string
	err := row.Scan(&rep.ID, &rep.Title, &rep.ReportType, &rep.Summary, &rep.Content,
		&rep.DataRangeStart, &rep.DataRangeEnd, &rep.AIGenerated, &rep.GeneratedBy,
		&rep.FileURL, &rep.ViewCount, &rep.Status, &createdAt)
	if err == sql.ErrNoRows {
		return Report{}, ErrNotFound
	}
	if err != nil {
		return Report{}, err
	}
	if rep.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Report{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return rep, nil
}

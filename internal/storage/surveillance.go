package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// --- Sites ---

// CreateSite inserts a new site. Returns ErrDuplicate when the site code
// is already taken.
func (s *Store) CreateSite(site Site) error {
	now := time.Now().UTC().Format(time.RFC3339)
	status := site.Status
	if status == "" {
		status = "active"
	}
	_, err := s.db.Exec(`
		INSERT INTO sites (id, site_code, name, type, province, city, district, address, lat, lng, contact_name, contact_phone, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		site.ID, site.SiteCode, site.Name, site.Type, site.Province, site.City, site.District,
		site.Address, site.Lat, site.Lng, site.ContactName, site.ContactPhone, status, now, now,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("site code %q: %w", site.SiteCode, ErrDuplicate)
	}
	return err
}

func (s *Store) GetSite(id string) (Site, error) {
	row := s.db.QueryRow(`
		SELECT id, site_code, name, type, province, city, district, address, lat, lng, contact_name, contact_phone, status, created_at, updated_at
		FROM sites WHERE id = ?`, id,
	)
	return scanSite(row)
}

// SiteFilter narrows ListSites. Empty fields match all sites.
type SiteFilter struct {
	Status   string
	Province string
	City     string
	Limit    int
}

// ListSites returns sites ordered by creation time, newest first.
func (s *Store) ListSites(f SiteFilter) ([]Site, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, site_code, name, type, province, city, district, address, lat, lng, contact_name, contact_phone, status, created_at, updated_at
		FROM sites`
	var conds []string
	args := []interface{}{}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Province != "" {
		conds = append(conds, "province = ?")
		args = append(args, f.Province)
	}
	if f.City != "" {
		conds = append(conds, "city = ?")
		args = append(args, f.City)
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, site)
	}
	return results, rows.Err()
}

// UpdateSite overwrites a site's mutable fields. Returns ErrNotFound if
// the id does not exist and ErrDuplicate if the new site code collides.
func (s *Store) UpdateSite(site Site) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`
		UPDATE sites SET site_code = ?, name = ?, type = ?, province = ?, city = ?, district = ?, address = ?,
			lat = ?, lng = ?, contact_name = ?, contact_phone = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		site.SiteCode, site.Name, site.Type, site.Province, site.City, site.District, site.Address,
		site.Lat, site.Lng, site.ContactName, site.ContactPhone, site.Status, now, site.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("site code %q: %w", site.SiteCode, ErrDuplicate)
	}
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

func (s *Store) DeleteSite(id string) error {
	res, err := s.db.Exec("DELETE FROM sites WHERE id = ?", id)
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

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSite(row rowScanner) (Site, error) {
	var site Site
	var createdAt, updatedAt string
	err := row.Scan(&site.ID, &site.SiteCode, &site.Name, &site.Type, &site.Province, &site.City,
		&site.District, &site.Address, &site.Lat, &site.Lng, &site.ContactName, &site.ContactPhone,
		&site.Status, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return Site{}, ErrNotFound
	}
	if err != nil {
		return Site{}, err
	}
	if site.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Site{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if site.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return Site{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return site, nil
}

// --- Alerts ---

func (s *Store) CreateAlert(a Alert) error {
	now := time.Now().UTC().Format(time.RFC3339)
	severity := a.Severity
	if severity == "" {
		severity = "medium"
	}
	status := a.Status
	if status == "" {
		status = "open"
	}
	_, err := s.db.Exec(`
		INSERT INTO alerts (id, site_id, title, description, severity, status, assigned_to, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.SiteID, a.Title, a.Description, severity, status, a.AssignedTo, now, now,
	)
	return err
}

// ListAlerts returns alerts, newest first. Empty filter values match all.
func (s *Store) ListAlerts(status, severity, siteID string, limit int) ([]Alert, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, site_id, title, description, severity, status, assigned_to, resolved_at, created_at, updated_at
		FROM alerts`
	var conds []string
	args := []interface{}{}
	if status != "" {
		conds = append(conds, "status = ?")
		args = append(args, status)
	}
	if severity != "" {
		conds = append(conds, "severity = ?")
		args = append(args, severity)
	}
	if siteID != "" {
		conds = append(conds, "site_id = ?")
		args = append(args, siteID)
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

func (s *Store) GetAlert(id string) (Alert, error) {
	row := s.db.QueryRow(`
		SELECT id, site_id, title, description, severity, status, assigned_to, resolved_at, created_at, updated_at
		FROM alerts WHERE id = ?`, id,
	)
	return scanAlert(row)
}

// AcknowledgeAlert marks an open alert as acknowledged and records who
// took it.
func (s *Store) AcknowledgeAlert(id, assignedTo string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`
		UPDATE alerts SET status = 'acknowledged', assigned_to = ?, updated_at = ? WHERE id = ?`,
		assignedTo, now, id,
	)
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

// ResolveAlert marks an alert as resolved and stamps the resolution time.
func (s *Store) ResolveAlert(id string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`
		UPDATE alerts SET status = 'resolved', resolved_at = ?, updated_at = ? WHERE id = ?`,
		now, now, id,
	)
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

// GetAlertStats aggregates alert counts by status and severity.
func (s *Store) GetAlertStats() (AlertStats, error) {
	stats := AlertStats{BySeverity: make(map[string]int)}

	rows, err := s.db.Query("SELECT status, severity, COUNT(*) FROM alerts GROUP BY status, severity")
	if err != nil {
		return AlertStats{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var status, severity string
		var count int
		if err := rows.Scan(&status, &severity, &count); err != nil {
			return AlertStats{}, err
		}
		switch status {
		case "open":
			stats.OpenCount += count
		case "acknowledged":
			stats.AcknowledgedCount += count
		case "resolved":
			stats.ResolvedCount += count
		}
		if status != "resolved" {
			stats.BySeverity[severity] += count
		}
	}
	return stats, rows.Err()
}

func scanAlert(row rowScanner) (Alert, error) {
	var a Alert
	var resolvedAt sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(&a.ID, &a.SiteID, &a.Title, &a.Description, &a.Severity, &a.Status,
		&a.AssignedTo, &resolvedAt, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return Alert{}, ErrNotFound
	}
	if err != nil {
		return Alert{}, err
	}
	if resolvedAt.Valid {
		t, err := time.Parse(time.RFC3339, resolvedAt.String)
		if err != nil {
			return Alert{}, fmt.Errorf("parsing resolved_at: %w", err)
		}
		a.ResolvedAt = &t
	}
	if a.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Alert{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if a.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return Alert{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return a, nil
}

// --- Monitoring data ---

func (s *Store) InsertMonitoringData(m MonitoringData) error {
	now := time.Now().UTC().Format(time.RFC3339)
	sampledAt := now
	if !m.SampledAt.IsZero() {
		sampledAt = m.SampledAt.UTC().Format(time.RFC3339)
	}
	_, err := s.db.Exec(`
		INSERT INTO monitoring_data (id, site_id, metric, value, unit, sampled_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.SiteID, m.Metric, m.Value, m.Unit, sampledAt, now,
	)
	return err
}

// ListMonitoringData returns measurements, newest first. An empty siteID
// matches all sites.
func (s *Store) ListMonitoringData(siteID string, limit int) ([]MonitoringData, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, site_id, metric, value, unit, sampled_at, created_at
		FROM monitoring_data`
	args := []interface{}{}
	if siteID != "" {
		query += " WHERE site_id = ?"
		args = append(args, siteID)
	}
	query += " ORDER BY sampled_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MonitoringData
	for rows.Next() {
		var m MonitoringData
		var sampledAt, createdAt string
		if err := rows.Scan(&m.ID, &m.SiteID, &m.Metric, &m.Value, &m.Unit, &sampledAt, &createdAt); err != nil {
			return nil, err
		}
		if m.SampledAt, err = time.Parse(time.RFC3339, sampledAt); err != nil {
			return nil, fmt.Errorf("parsing sampled_at: %w", err)
		}
		if m.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

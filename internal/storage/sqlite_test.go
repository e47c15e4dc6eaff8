package storage

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vetwatch/vetwatch/internal/conversation"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenAppliesMigrations(t *testing.T) {
	s := openTestStore(t)

	versions, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations error: %v", err)
	}
	if len(versions) == 0 || versions[0] != 1 {
		t.Errorf("AppliedMigrations = %v, want [1 ...]", versions)
	}
}

func TestAppendSessionTurnCreatesAndAppends(t *testing.T) {
	s := openTestStore(t)

	turn := conversation.Turn{
		SessionKey:       "u1-sampler",
		UserID:           "u1",
		PersonaID:        "sampler",
		UserMessage:      "where do I sample?",
		AssistantMessage: "start at the water lines",
		Model:            "test-model",
		TotalTokens:      42,
		LatencyMs:        120,
	}
	if err := s.AppendSessionTurn(turn); err != nil {
		t.Fatalf("AppendSessionTurn error: %v", err)
	}

	// Second turn must reuse the same conversation record.
	turn.UserMessage = "and after that?"
	turn.AssistantMessage = "move to the feed troughs"
	if err := s.AppendSessionTurn(turn); err != nil {
		t.Fatalf("second AppendSessionTurn error: %v", err)
	}

	c, err := s.GetConversation("u1-sampler")
	if err != nil {
		t.Fatalf("GetConversation error: %v", err)
	}
	if c.PersonaID != "sampler" || c.UserID != "u1" || c.Status != "active" {
		t.Errorf("conversation = %+v", c)
	}
	if len(c.Messages) != 4 {
		t.Fatalf("len(Messages) = %d, want 4", len(c.Messages))
	}
	if c.Messages[0].Role != "user" || c.Messages[0].Content != "where do I sample?" {
		t.Errorf("first message = %+v", c.Messages[0])
	}
	if last := c.Messages[3]; last.Role != "assistant" || last.Content != "move to the feed troughs" {
		t.Errorf("last message = %+v", last)
	}
	if c.Messages[1].Model != "test-model" || c.Messages[1].Tokens != 42 {
		t.Errorf("assistant metadata = %+v", c.Messages[1])
	}

	convs, err := s.ListConversations(10)
	if err != nil {
		t.Fatalf("ListConversations error: %v", err)
	}
	if len(convs) != 1 || convs[0].SessionKey != "u1-sampler" {
		t.Errorf("ListConversations = %+v", convs)
	}
	if len(convs[0].Messages) != 0 {
		t.Error("ListConversations should not load transcripts")
	}
}

func TestDeleteSession(t *testing.T) {
	s := openTestStore(t)

	if err := s.AppendSessionTurn(conversation.Turn{
		SessionKey: "gone", PersonaID: "analyst", UserMessage: "q", AssistantMessage: "a",
	}); err != nil {
		t.Fatalf("AppendSessionTurn error: %v", err)
	}

	if err := s.DeleteSession("gone"); err != nil {
		t.Fatalf("DeleteSession error: %v", err)
	}
	if _, err := s.GetConversation("gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetConversation after delete = %v, want ErrNotFound", err)
	}

	// Deleting a session that never existed is fine.
	if err := s.DeleteSession("never-was"); err != nil {
		t.Errorf("DeleteSession(unknown) = %v, want nil", err)
	}
}

func TestSiteCRUD(t *testing.T) {
	s := openTestStore(t)

	site := Site{ID: "s1", SiteCode: "GZ-001", Name: "North Farm", Type: "pig_farm", Province: "Guangdong"}
	if err := s.CreateSite(site); err != nil {
		t.Fatalf("CreateSite error: %v", err)
	}

	dup := Site{ID: "s2", SiteCode: "GZ-001", Name: "Clone Farm"}
	if err := s.CreateSite(dup); !errors.Is(err, ErrDuplicate) {
		t.Errorf("CreateSite duplicate code = %v, want ErrDuplicate", err)
	}

	got, err := s.GetSite("s1")
	if err != nil {
		t.Fatalf("GetSite error: %v", err)
	}
	if got.Name != "North Farm" || got.Status != "active" {
		t.Errorf("GetSite = %+v", got)
	}

	got.Name = "North Farm (renamed)"
	got.Status = "inactive"
	if err := s.UpdateSite(got); err != nil {
		t.Fatalf("UpdateSite error: %v", err)
	}

	active, err := s.ListSites(SiteFilter{Status: "active"})
	if err != nil {
		t.Fatalf("ListSites error: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("ListSites(active) = %+v, want empty", active)
	}
	all, err := s.ListSites(SiteFilter{})
	if err != nil {
		t.Fatalf("ListSites error: %v", err)
	}
	if len(all) != 1 || all[0].Name != "North Farm (renamed)" {
		t.Errorf("ListSites = %+v", all)
	}
	byProvince, err := s.ListSites(SiteFilter{Province: "Guangdong"})
	if err != nil {
		t.Fatalf("ListSites error: %v", err)
	}
	if len(byProvince) != 1 {
		t.Errorf("ListSites(Guangdong) = %+v", byProvince)
	}

	if err := s.DeleteSite("s1"); err != nil {
		t.Fatalf("DeleteSite error: %v", err)
	}
	if err := s.DeleteSite("s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteSite(missing) = %v, want ErrNotFound", err)
	}
}

func TestAlertLifecycle(t *testing.T) {
	s := openTestStore(t)

	if err := s.CreateAlert(Alert{ID: "a1", SiteID: "s1", Title: "Abnormal mortality", Severity: "high"}); err != nil {
		t.Fatalf("CreateAlert error: %v", err)
	}
	if err := s.CreateAlert(Alert{ID: "a2", SiteID: "s1", Title: "Temp sensor offline"}); err != nil {
		t.Fatalf("CreateAlert error: %v", err)
	}

	if err := s.AcknowledgeAlert("a1", "dr.wen"); err != nil {
		t.Fatalf("AcknowledgeAlert error: %v", err)
	}
	a, err := s.GetAlert("a1")
	if err != nil {
		t.Fatalf("GetAlert error: %v", err)
	}
	if a.Status != "acknowledged" || a.AssignedTo != "dr.wen" {
		t.Errorf("after acknowledge = %+v", a)
	}

	if err := s.ResolveAlert("a1"); err != nil {
		t.Fatalf("ResolveAlert error: %v", err)
	}
	a, _ = s.GetAlert("a1")
	if a.Status != "resolved" || a.ResolvedAt == nil {
		t.Errorf("after resolve = %+v", a)
	}

	if err := s.ResolveAlert("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ResolveAlert(missing) = %v, want ErrNotFound", err)
	}

	open, err := s.ListAlerts("open", "", "", 10)
	if err != nil {
		t.Fatalf("ListAlerts error: %v", err)
	}
	if len(open) != 1 || open[0].ID != "a2" {
		t.Errorf("ListAlerts(open) = %+v", open)
	}

	stats, err := s.GetAlertStats()
	if err != nil {
		t.Fatalf("GetAlertStats error: %v", err)
	}
	if stats.OpenCount != 1 || stats.ResolvedCount != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.BySeverity["medium"] != 1 {
		t.Errorf("BySeverity = %+v, want medium:1 among unresolved", stats.BySeverity)
	}
}

func TestMonitoringDataNewestFirst(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"m1", "m2", "m3"} {
		err := s.InsertMonitoringData(MonitoringData{
			ID: id, SiteID: "s1", Metric: "temperature", Value: 38.0 + float64(i),
			Unit: "C", SampledAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("InsertMonitoringData error: %v", err)
		}
	}
	if err := s.InsertMonitoringData(MonitoringData{ID: "other", SiteID: "s2", Metric: "humidity", Value: 60}); err != nil {
		t.Fatalf("InsertMonitoringData error: %v", err)
	}

	got, err := s.ListMonitoringData("s1", 10)
	if err != nil {
		t.Fatalf("ListMonitoringData error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].ID != "m3" || got[2].ID != "m1" {
		t.Errorf("order = [%s %s %s], want newest first", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestReportLifecycle(t *testing.T) {
	s := openTestStore(t)

	daily := Report{
		ID: "r1", Title: "Daily surveillance digest", ReportType: "daily",
		Summary: "All quiet.", Content: "No anomalies across monitored sites.",
		AIGenerated: true, GeneratedBy: "reporter",
	}
	if err := s.CreateReport(daily); err != nil {
		t.Fatalf("CreateReport error: %v", err)
	}
	if err := s.CreateReport(Report{
		ID: "r2", Title: "Q1 industry brief", ReportType: "industry",
		GeneratedBy: "dr.wen", Status: "draft",
		DataRangeStart: "2026-01-01", DataRangeEnd: "2026-03-31",
	}); err != nil {
		t.Fatalf("CreateReport error: %v", err)
	}

	got, err := s.GetReport("r1")
	if err != nil {
		t.Fatalf("GetReport error: %v", err)
	}
	if got.Status != "published" {
		t.Errorf("Status = %q, want default published", got.Status)
	}
	if !got.AIGenerated || got.GeneratedBy != "reporter" {
		t.Errorf("generation metadata = %+v", got)
	}
	if got.ViewCount != 0 {
		t.Errorf("ViewCount = %d, want 0 before any view", got.ViewCount)
	}

	// Each detail read bumps the view count.
	if _, err := s.ViewReport("r1"); err != nil {
		t.Fatalf("ViewReport error: %v", err)
	}
	got, err = s.ViewReport("r1")
	if err != nil {
		t.Fatalf("ViewReport error: %v", err)
	}
	if got.ViewCount != 2 {
		t.Errorf("ViewCount = %d, want 2 after two views", got.ViewCount)
	}
	if _, err := s.ViewReport("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ViewReport missing = %v, want ErrNotFound", err)
	}

	page, err := s.ListReports(ReportFilter{Type: "daily"})
	if err != nil {
		t.Fatalf("ListReports error: %v", err)
	}
	if page.Total != 1 || len(page.Reports) != 1 || page.Reports[0].ID != "r1" {
		t.Errorf("daily page = %+v", page)
	}

	page, err = s.ListReports(ReportFilter{Status: "draft"})
	if err != nil {
		t.Fatalf("ListReports error: %v", err)
	}
	if page.Total != 1 || len(page.Reports) != 1 || page.Reports[0].ID != "r2" {
		t.Errorf("draft page = %+v", page)
	}

	if err := s.DeleteReport("r1"); err != nil {
		t.Fatalf("DeleteReport error: %v", err)
	}
	if err := s.DeleteReport("r1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteReport twice = %v, want ErrNotFound", err)
	}
}

func TestListReportsPagination(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 5; i++ {
		err := s.CreateReport(Report{
			ID: fmt.Sprintf("r%d", i), Title: fmt.Sprintf("Weekly digest %d", i), ReportType: "weekly",
		})
		if err != nil {
			t.Fatalf("CreateReport error: %v", err)
		}
	}

	page, err := s.ListReports(ReportFilter{Type: "weekly", Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("ListReports error: %v", err)
	}
	if page.Total != 5 || page.TotalPages != 3 {
		t.Errorf("totals = %d/%d, want 5 across 3 pages", page.Total, page.TotalPages)
	}
	if len(page.Reports) != 2 {
		t.Errorf("len(page 2) = %d, want 2", len(page.Reports))
	}
	if page.Page != 2 || page.Limit != 2 {
		t.Errorf("page/limit echoed = %d/%d", page.Page, page.Limit)
	}

	last, err := s.ListReports(ReportFilter{Type: "weekly", Page: 3, Limit: 2})
	if err != nil {
		t.Fatalf("ListReports error: %v", err)
	}
	if len(last.Reports) != 1 {
		t.Errorf("len(page 3) = %d, want 1", len(last.Reports))
	}
}

package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vetwatch/vetwatch/internal/config"
	"github.com/vetwatch/vetwatch/internal/storage"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo sites, alerts, monitoring data, and reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		printStep("Seeding sites...")
		lat1, lng1 := 23.13, 113.26
		lat2, lng2 := 30.27, 120.15
		sites := []storage.Site{
			{
				ID: uuid.NewString(), SiteCode: "GD-PF-001", Name: "Conghua Breeding Farm",
				Type: "pig_farm", Province: "Guangdong", City: "Guangzhou", District: "Conghua",
				Lat: &lat1, Lng: &lng1, ContactName: "Zhang Wei", ContactPhone: "13800000001",
			},
			{
				ID: uuid.NewString(), SiteCode: "ZJ-PM-002", Name: "Xiaoshan Poultry Market",
				Type: "live_market", Province: "Zhejiang", City: "Hangzhou", District: "Xiaoshan",
				Lat: &lat2, Lng: &lng2, ContactName: "Li Na", ContactPhone: "13800000002",
			},
			{
				ID: uuid.NewString(), SiteCode: "GD-SL-003", Name: "Panyu Slaughterhouse",
				Type: "slaughterhouse", Province: "Guangdong", City: "Guangzhou", District: "Panyu",
				ContactName: "Chen Jun", ContactPhone: "13800000003",
			},
		}
		for _, site := range sites {
			if err := store.CreateSite(site); err != nil {
				printError("site %s: %v", site.SiteCode, err)
				continue
			}
			printSuccess("Site %s (%s)", site.Name, site.SiteCode)
		}

		printStep("Seeding alerts...")
		alerts := []storage.Alert{
			{ID: uuid.NewString(), SiteID: sites[0].ID, Title: "Abnormal mortality in weaner unit", Severity: "high", Description: "Mortality rate doubled over 48h in building 3."},
			{ID: uuid.NewString(), SiteID: sites[1].ID, Title: "Positive environmental swab", Severity: "critical", Description: "H5 subtype detected in drainage sample, pending confirmation."},
			{ID: uuid.NewString(), SiteID: sites[0].ID, Title: "Aerosol sampler offline", Severity: "low", Description: "Unit AS-12 stopped reporting; likely power fault."},
		}
		for _, alert := range alerts {
			if err := store.CreateAlert(alert); err != nil {
				printError("alert %q: %v", alert.Title, err)
				continue
			}
			printSuccess("Alert %q (%s)", alert.Title, alert.Severity)
		}

		printStep("Seeding monitoring data...")
		now := time.Now().UTC()
		metrics := []struct {
			metric string
			value  float64
			unit   string
		}{
			{"temperature", 24.5, "C"},
			{"humidity", 68.0, "%"},
			{"aerosol_particle_count", 1520, "p/m3"},
			{"ammonia", 12.3, "ppm"},
		}
		count := 0
		for _, site := range sites {
			for i, m := range metrics {
				err := store.InsertMonitoringData(storage.MonitoringData{
					ID:        uuid.NewString(),
					SiteID:    site.ID,
					Metric:    m.metric,
					Value:     m.value,
					Unit:      m.unit,
					SampledAt: now.Add(-time.Duration(i) * time.Hour),
				})
				if err != nil {
					printError("monitoring %s@%s: %v", m.metric, site.SiteCode, err)
					continue
				}
				count++
			}
		}
		printSuccess("%d monitoring records", count)

		printStep("Seeding reports...")
		reports := []storage.Report{
			{
				ID: uuid.NewString(), Title: "Daily surveillance digest", ReportType: "daily",
				Summary: "Two active alerts, aerosol counts elevated at GD-PF-001.",
				Content: "Mortality alert in the Conghua weaner unit remains open; environmental swab from Xiaoshan awaits confirmatory PCR.",
				AIGenerated: true, GeneratedBy: "reporter",
			},
			{
				ID: uuid.NewString(), Title: "Weekly provincial summary — Guangdong", ReportType: "weekly",
				Summary:        "No confirmed outbreaks; one sampler outage resolved.",
				GeneratedBy:    "Chen Jun",
				DataRangeStart: now.AddDate(0, 0, -7).Format("2006-01-02"),
				DataRangeEnd:   now.Format("2006-01-02"),
			},
		}
		for _, rep := range reports {
			if err := store.CreateReport(rep); err != nil {
				printError("report %q: %v", rep.Title, err)
				continue
			}
			printSuccess("Report %q (%s)", rep.Title, rep.ReportType)
		}
		return nil
	},
}

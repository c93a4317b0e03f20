package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/jengzang/geolife-tracks/internal/ingest"
	"github.com/jengzang/geolife-tracks/internal/models"
	"github.com/jengzang/geolife-tracks/internal/parser"
	"github.com/jengzang/geolife-tracks/internal/reconcile"
)

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func printIngestSummary(out io.Writer, s *ingest.Summary) {
	fmt.Fprintf(out, "== ingestion (run %s) ==\n", s.RunID)
	w := newTable(out)
	fmt.Fprintf(w, "users\t%d\t(%d labeled)\n", s.Users, s.LabeledUsers)
	fmt.Fprintf(w, "trajectory files\t%d\n", s.Files)
	fmt.Fprintf(w, "activities\t%d\n", s.Activities)
	fmt.Fprintf(w, "track points\t%d\t(%d batches)\n", s.Points, s.Batches)
	fmt.Fprintf(w, "malformed lines\t%d\n", s.LinesDropped)
	for _, r := range []parser.Reason{parser.ReasonOversize, parser.ReasonNoData, parser.ReasonUnreadable, parser.ReasonInvalidID, parser.ReasonIDCollision} {
		if n := s.SkippedBy(r); n > 0 {
			fmt.Fprintf(w, "skipped: %s\t%d\n", r, n)
		}
	}
	if len(s.Ignored) > 0 {
		fmt.Fprintf(w, "ignored files\t%d\n", len(s.Ignored))
	}
	fmt.Fprintf(w, "duration\t%s\n", s.Duration.Round(time.Millisecond))
	w.Flush()
}

func printReconcileReport(out io.Writer, r *reconcile.ReconcileReport) {
	fmt.Fprintln(out, "== label reconciliation ==")
	w := newTable(out)
	fmt.Fprintf(w, "labeled users\t%d\n", r.Users)
	fmt.Fprintf(w, "activities checked\t%d\n", r.Activities)
	fmt.Fprintf(w, "modes assigned\t%d\n", r.Matched)
	fmt.Fprintf(w, "invalid label lines\t%d\n", r.LabelsDropped)
	w.Flush()
	printAnomalies(out, r.Anomalies)
}

func printVerificationReport(out io.Writer, r *reconcile.VerificationReport) {
	fmt.Fprintln(out, "== verification ==")
	ratio := 0.0
	if r.Checked > 0 {
		ratio = float64(r.Correct) / float64(r.Checked) * 100
	}
	fmt.Fprintf(out, "correct %d / %d labeled activities (%.2f%%)\n", r.Correct, r.Checked, ratio)
	if len(r.Mismatches) > 0 {
		w := newTable(out)
		fmt.Fprintln(w, "USER\tACTIVITY\tPERSISTED\tEXPECTED")
		for _, m := range r.Mismatches {
			persisted := "<none>"
			if m.Persisted != nil {
				persisted = *m.Persisted
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", m.UserID, m.ActivityID, persisted, m.Expected)
		}
		w.Flush()
	}
	printAnomalies(out, r.Anomalies)
}

func printAnomalies(out io.Writer, anomalies []reconcile.Anomaly) {
	if len(anomalies) == 0 {
		return
	}
	w := newTable(out)
	fmt.Fprintln(w, "USER\tANOMALY")
	for _, a := range anomalies {
		fmt.Fprintf(w, "%s\t%s\n", a.UserID, a.Kind)
	}
	w.Flush()
}

func printReport(out io.Writer, name string, result interface{}) {
	fmt.Fprintf(out, "== %s ==\n", name)
	w := newTable(out)
	defer w.Flush()

	switch v := result.(type) {
	case *models.DatasetCounts:
		printCounts(w, v)
	case *models.TableDump:
		printCounts(w, &v.Counts)
		fmt.Fprintln(w, "\nUSER\tHAS LABELS")
		for _, u := range v.Users {
			fmt.Fprintf(w, "%s\t%t\n", u.ID, u.HasLabels)
		}
		fmt.Fprintln(w, "\nACTIVITY\tUSER\tMODE\tSTART\tEND")
		for _, a := range v.Activities {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", a.ID, a.UserID, a.ModeOrEmpty(), models.FormatTime(a.Start), models.FormatTime(a.End))
		}
	case []models.UserCount:
		fmt.Fprintln(w, "USER\tCOUNT")
		for _, uc := range v {
			fmt.Fprintf(w, "%s\t%d\n", uc.UserID, uc.Count)
		}
	case []models.ModeCount:
		fmt.Fprintln(w, "MODE\tCOUNT")
		for _, mc := range v {
			fmt.Fprintf(w, "%s\t%d\n", mc.Mode, mc.Count)
		}
	case *models.YearComparison:
		fmt.Fprintln(w, "\tYEAR\tACTIVITIES\tHOURS")
		fmt.Fprintf(w, "most activities\t%d\t%d\t%.1f\n", v.MostActivities.Year, v.MostActivities.Activities, v.MostActivities.Hours)
		fmt.Fprintf(w, "most hours\t%d\t%d\t%.1f\n", v.MostHours.Year, v.MostHours.Activities, v.MostHours.Hours)
		fmt.Fprintf(w, "same year\t%t\n", v.SameYear)
	case *models.DistanceReport:
		fmt.Fprintf(w, "user %s, %s in %d\t%.3f km\t(%d activities)\n", v.UserID, v.Mode, v.Year, v.Kilometers, v.Activities)
	case []models.AltitudeGain:
		fmt.Fprintln(w, "USER\tFEET\tMETERS")
		for _, g := range v {
			fmt.Fprintf(w, "%s\t%d\t%.1f\n", g.UserID, g.Feet, g.Meters)
		}
	case []models.UserMode:
		fmt.Fprintln(w, "USER\tMODE\tCOUNT")
		for _, um := range v {
			fmt.Fprintf(w, "%s\t%s\t%d\n", um.UserID, um.Mode, um.Count)
		}
	case map[string]float64:
		for k, f := range v {
			fmt.Fprintf(w, "%s\t%.2f\n", k, f)
		}
	default:
		fmt.Fprintf(w, "%v\n", v)
	}
}

func printCounts(w io.Writer, c *models.DatasetCounts) {
	fmt.Fprintf(w, "users\t%d\n", c.Users)
	fmt.Fprintf(w, "activities\t%d\n", c.Activities)
	fmt.Fprintf(w, "track points\t%d\n", c.TrackPoints)
}

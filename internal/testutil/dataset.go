// Package testutil provides shared helpers for tests: throwaway GeoLife
// datasets on disk and migrated SQLite databases in t.TempDir().
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// PLTHeader is the six-line header of a GeoLife trajectory file.
const PLTHeader = "Geolife trajectory\nWGS 84\nAltitude is in Feet\nReserved 3\n0,2,255,My Track,0,0,2,8421376\n0\n"

// Fix is one trajectory sample used to build PLT content.
type Fix struct {
	Lat, Lon float64
	Altitude int
	Time     time.Time
}

// PLT renders fixes as a trajectory file body, header included.
func PLT(fixes ...Fix) string {
	var b strings.Builder
	b.WriteString(PLTHeader)
	for _, f := range fixes {
		fmt.Fprintf(&b, "%f,%f,0,%d,39744.1201851852,%s,%s\n",
			f.Lat, f.Lon, f.Altitude, f.Time.Format("2006-01-02"), f.Time.Format("15:04:05"))
	}
	return b.String()
}

// Series returns n fixes starting at start, step apart, at a fixed position.
func Series(start time.Time, step time.Duration, n int) []Fix {
	fixes := make([]Fix, n)
	for i := range fixes {
		fixes[i] = Fix{Lat: 39.9847, Lon: 116.3184, Altitude: 100 + i, Time: start.Add(time.Duration(i) * step)}
	}
	return fixes
}

// LabelLine renders one label file row.
func LabelLine(start, end time.Time, mode string) string {
	return start.Format("2006/01/02 15:04:05") + "\t" + end.Format("2006/01/02 15:04:05") + "\t" + mode
}

// Dataset builds a GeoLife directory tree under t.TempDir().
type Dataset struct {
	t    *testing.T
	Root string
}

// NewDataset creates an empty dataset root with a Data directory.
func NewDataset(t *testing.T) *Dataset {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "Data"), 0o755); err != nil {
		t.Fatalf("testutil.NewDataset: %v", err)
	}
	return &Dataset{t: t, Root: root}
}

// Manifest writes the labeled-identities file.
func (d *Dataset) Manifest(ids ...string) *Dataset {
	d.t.Helper()
	d.write("labeled_ids.txt", strings.Join(ids, "\n")+"\n")
	return d
}

// User creates an empty user directory with a Trajectory sub-directory.
func (d *Dataset) User(id string) *Dataset {
	d.t.Helper()
	if err := os.MkdirAll(filepath.Join(d.Root, "Data", id, "Trajectory"), 0o755); err != nil {
		d.t.Fatalf("testutil.Dataset.User: %v", err)
	}
	return d
}

// Trajectory writes Data/<user>/Trajectory/<stem>.plt.
func (d *Dataset) Trajectory(userID, stem, content string) *Dataset {
	d.t.Helper()
	d.User(userID)
	d.write(filepath.Join("Data", userID, "Trajectory", stem+".plt"), content)
	return d
}

// Labels writes Data/<user>/labels.txt with a header line.
func (d *Dataset) Labels(userID string, lines ...string) *Dataset {
	d.t.Helper()
	body := "Start Time\tEnd Time\tTransportation Mode\n" + strings.Join(lines, "\n") + "\n"
	d.write(filepath.Join("Data", userID, "labels.txt"), body)
	return d
}

func (d *Dataset) write(rel, content string) {
	d.t.Helper()
	path := filepath.Join(d.Root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		d.t.Fatalf("testutil.Dataset: mkdir %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		d.t.Fatalf("testutil.Dataset: write %s: %v", rel, err)
	}
}

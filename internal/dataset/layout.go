// Package dataset knows the on-disk layout of a GeoLife dataset: the
// labeled-identities manifest, the per-user Trajectory directories and the
// optional per-user label files.
package dataset

import "path/filepath"

const (
	// DataDirName is the directory holding one sub-directory per user.
	DataDirName = "Data"
	// TrajectoryDirName is the only directory name that contains .plt files.
	TrajectoryDirName = "Trajectory"
	// TrajectoryExt is the extension of trajectory files.
	TrajectoryExt = ".plt"

	DefaultManifestName  = "labeled_ids.txt"
	DefaultLabelFileName = "labels.txt"
)

// Layout locates the inputs below a dataset root
type Layout struct {
	Root          string
	ManifestName  string
	LabelFileName string
}

// NewLayout creates a layout, filling empty file names with the defaults.
func NewLayout(root, manifestName, labelFileName string) Layout {
	if manifestName == "" {
		manifestName = DefaultManifestName
	}
	if labelFileName == "" {
		labelFileName = DefaultLabelFileName
	}
	return Layout{Root: root, ManifestName: manifestName, LabelFileName: labelFileName}
}

func (l Layout) DataDir() string {
	return filepath.Join(l.Root, DataDirName)
}

func (l Layout) ManifestPath() string {
	return filepath.Join(l.Root, l.ManifestName)
}

func (l Layout) LabelPath(userID string) string {
	return filepath.Join(l.DataDir(), userID, l.LabelFileName)
}

package dataset

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/jengzang/geolife-tracks/internal/models"
)

// ActivityFile is one discovered trajectory file
type ActivityFile struct {
	Key  Key
	Path string
}

// Plan is everything one walk of the Data directory discovered.
// Users are sorted by id; activities follow the lexical walk order,
// which groups them by user.
type Plan struct {
	Users      []models.User
	Activities []ActivityFile
	// Ignored lists .plt files that are not at Data/<user>/Trajectory/<file>.
	Ignored []string
}

// Walk traverses the Data directory of layout once and returns the users and
// trajectory files it contains. User directories are the direct children of
// Data; each is flagged with manifest membership.
func Walk(layout Layout, manifest Manifest) (*Plan, error) {
	dataDir := filepath.Clean(layout.DataDir())
	plan := &Plan{}

	err := filepath.WalkDir(dataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dataDir {
			return nil
		}

		parent := filepath.Dir(path)
		if d.IsDir() {
			if parent == dataDir && d.Name() != TrajectoryDirName {
				plan.Users = append(plan.Users, models.User{
					ID:        d.Name(),
					HasLabels: manifest.Has(d.Name()),
				})
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), TrajectoryExt) {
			return nil
		}
		if filepath.Base(parent) != TrajectoryDirName {
			return nil
		}
		userDir := filepath.Dir(parent)
		if filepath.Dir(userDir) != dataDir || filepath.Base(userDir) == TrajectoryDirName {
			plan.Ignored = append(plan.Ignored, path)
			return nil
		}

		plan.Activities = append(plan.Activities, ActivityFile{
			Key: Key{
				UserID: filepath.Base(userDir),
				Stem:   strings.TrimSuffix(d.Name(), TrajectoryExt),
			},
			Path: path,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dataDir, err)
	}
	return plan, nil
}

// LabeledUsers returns the ids of users flagged with labels, in plan order.
func (p *Plan) LabeledUsers() []string {
	var ids []string
	for _, u := range p.Users {
		if u.HasLabels {
			ids = append(ids, u.ID)
		}
	}
	return ids
}

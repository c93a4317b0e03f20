package dataset

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/jengzang/geolife-tracks/internal/models"
)

// Manifest is the set of user ids that ship label files
type Manifest map[string]struct{}

// Has reports whether userID is listed.
func (m Manifest) Has(userID string) bool {
	_, ok := m[userID]
	return ok
}

// ReadManifest reads one user id per line. Blank lines are ignored.
// A missing or unreadable manifest wraps models.ErrManifestMissing.
func ReadManifest(path string) (Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrManifestMissing, err)
	}
	defer f.Close()

	manifest := make(Manifest)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		manifest[id] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", models.ErrManifestMissing, path, err)
	}
	return manifest, nil
}

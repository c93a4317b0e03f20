package models

import "errors"

// ErrNotFound is returned by repositories when a row does not exist.
var ErrNotFound = errors.New("not found")

// ErrLabelsMissing is returned when a labeled user has no label file.
var ErrLabelsMissing = errors.New("label file missing")

// ErrManifestMissing is returned when the labeled-identities manifest
// cannot be read. It aborts the run.
var ErrManifestMissing = errors.New("labeled identities manifest missing")

package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrDatasetNotFound is returned by stores when no dataset has the requested ID.
var ErrDatasetNotFound = errors.New("dataset not found")

// Dataset describes an uploaded table. Its rows are stored separately.
type Dataset struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Format     string    `json:"format"`
	Columns    []string  `json:"columns"`
	RowCount   int       `json:"rowCount"`
	ArchiveKey string    `json:"archiveKey,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

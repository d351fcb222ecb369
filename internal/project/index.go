package project

import (
	"database/sql"
	"time"

	"github.com/mzielinska/rarog/internal/db"
)

// Summary is a lightweight view of an indexed project, including ones
// materialized by previous sessions.
type Summary struct {
	ID            string
	SessionID     string
	Name          string
	Description   string
	Tags          []string
	ArtifactCount int
	BundlePath    string
	UpdatedAt     time.Time
}

// LoadIndex reads all indexed project summaries in creation order.
// Called at startup so earlier sessions' bundles stay discoverable.
func LoadIndex(database *sql.DB) ([]Summary, error) {
	rows, err := db.ListProjects(database)
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(rows))
	for _, r := range rows {
		out = append(out, Summary{
			ID:            r.ID,
			SessionID:     r.SessionID,
			Name:          r.Name,
			Description:   r.Description,
			Tags:          r.Tags,
			ArtifactCount: r.ArtifactCount,
			BundlePath:    r.BundlePath,
			UpdatedAt:     time.Unix(r.UpdatedAt, 0),
		})
	}
	return out, nil
}

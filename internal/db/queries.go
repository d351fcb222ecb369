package db

import (
	"database/sql"
	"encoding/json"

	"github.com/mzielinska/rarog/internal/errors"
)

// ProjectRow is one project record in the index. Timestamps are unix
// seconds; Tags round-trips through tags_json.
type ProjectRow struct {
	ID            string
	SessionID     string
	Name          string
	Description   string
	Tags          []string
	ArtifactCount int
	BundlePath    string
	CreatedAt     int64
	UpdatedAt     int64
}

// ArtifactRow is one artifact record. Position preserves append order
// within the project.
type ArtifactRow struct {
	ID        string
	ProjectID string
	Position  int
	Kind      string
	Command   string
	Title     string
	Content   string
	DataJSON  string
	CreatedAt int64
}

// UpsertProject writes or refreshes one project record.
func UpsertProject(db *sql.DB, p *ProjectRow) error {
	tagsJSON, err := marshalTags(p.Tags)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO projects (
			id, session_id, name, description, tags_json,
			artifact_count, bundle_path, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			session_id = excluded.session_id,
			name = excluded.name,
			description = excluded.description,
			tags_json = excluded.tags_json,
			artifact_count = excluded.artifact_count,
			bundle_path = excluded.bundle_path,
			updated_at = excluded.updated_at
	`
	_, err = db.Exec(query,
		p.ID, p.SessionID, p.Name, toNullString(p.Description), tagsJSON,
		p.ArtifactCount, toNullString(p.BundlePath), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return errors.NewStorage(err)
	}
	return nil
}

// ReplaceArtifacts swaps the stored artifact rows of one project for
// the given set, atomically. The caller passes the full artifact list
// in append order.
func ReplaceArtifacts(db *sql.DB, projectID string, rows []ArtifactRow) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.NewStorage(err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM artifacts WHERE project_id = ?", projectID); err != nil {
		return errors.NewStorage(err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO artifacts (
			id, project_id, position, kind, command,
			title, content, data_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errors.NewStorage(err)
	}
	defer stmt.Close()

	for i, a := range rows {
		_, err := stmt.Exec(
			a.ID, projectID, i, a.Kind, a.Command,
			toNullString(a.Title), a.Content, toNullString(a.DataJSON), a.CreatedAt,
		)
		if err != nil {
			return errors.NewStorage(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStorage(err)
	}
	return nil
}

// ListProjects returns all project records in creation order.
func ListProjects(db *sql.DB) ([]ProjectRow, error) {
	rows, err := db.Query(`
		SELECT id, session_id, name, description, tags_json,
			artifact_count, bundle_path, created_at, updated_at
		FROM projects
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, errors.NewStorage(err)
	}
	defer rows.Close()

	var out []ProjectRow
	for rows.Next() {
		var (
			p                         ProjectRow
			description, tags, bundle sql.NullString
		)
		err := rows.Scan(&p.ID, &p.SessionID, &p.Name, &description, &tags,
			&p.ArtifactCount, &bundle, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, errors.NewStorage(err)
		}
		p.Description = description.String
		p.BundlePath = bundle.String
		if p.Tags, err = unmarshalTags(tags); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorage(err)
	}
	return out, nil
}

// GetProject returns one project record by id.
func GetProject(db *sql.DB, id string) (*ProjectRow, error) {
	row := db.QueryRow(`
		SELECT id, session_id, name, description, tags_json,
			artifact_count, bundle_path, created_at, updated_at
		FROM projects
		WHERE id = ?
	`, id)

	var (
		p                         ProjectRow
		description, tags, bundle sql.NullString
	)
	err := row.Scan(&p.ID, &p.SessionID, &p.Name, &description, &tags,
		&p.ArtifactCount, &bundle, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("project", id)
	}
	if err != nil {
		return nil, errors.NewStorage(err)
	}
	p.Description = description.String
	p.BundlePath = bundle.String
	if p.Tags, err = unmarshalTags(tags); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListArtifacts returns the artifact records of one project in append
// order.
func ListArtifacts(db *sql.DB, projectID string) ([]ArtifactRow, error) {
	rows, err := db.Query(`
		SELECT id, project_id, position, kind, command,
			title, content, data_json, created_at
		FROM artifacts
		WHERE project_id = ?
		ORDER BY position
	`, projectID)
	if err != nil {
		return nil, errors.NewStorage(err)
	}
	defer rows.Close()

	var out []ArtifactRow
	for rows.Next() {
		var (
			a           ArtifactRow
			title, data sql.NullString
		)
		err := rows.Scan(&a.ID, &a.ProjectID, &a.Position, &a.Kind, &a.Command,
			&title, &a.Content, &data, &a.CreatedAt)
		if err != nil {
			return nil, errors.NewStorage(err)
		}
		a.Title = title.String
		a.DataJSON = data.String
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorage(err)
	}
	return out, nil
}

func marshalTags(tags []string) (sql.NullString, error) {
	if len(tags) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, errors.NewInternal(err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalTags(s sql.NullString) ([]string, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(s.String), &tags); err != nil {
		return nil, errors.NewInternal(err)
	}
	return tags, nil
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

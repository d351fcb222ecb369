package project

import (
	"bytes"
	"crypto/rand"
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/mzielinska/rarog/internal/db"
	"github.com/mzielinska/rarog/internal/errors"
)

//go:embed templates/bundle.html
var templateFS embed.FS

var bundleTmpl = template.Must(template.ParseFS(templateFS, "templates/bundle.html"))

type bundleData struct {
	ProjectID     string
	SessionID     string
	Name          string
	Description   string
	Tags          string
	CreatedAt     string
	UpdatedAt     string
	ArtifactCount int
	GeneratedAt   string
	Artifacts     []bundleArtifact
}

type bundleArtifact struct {
	ID        string
	Kind      string
	Command   string
	Title     string
	CreatedAt string
	Body      template.HTML
}

// Materialize writes the project's HTML bundle to
// <projectsDir>/<id>/index.html and refreshes the index rows. This is
// the only point where project state reaches disk; repeated calls
// rewrite the same bundle in place.
func (s *Store) Materialize(p *Project) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	html, err := renderBundle(p)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(s.projectsDir, p.ID)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", errors.NewStorage(fmt.Errorf("failed to create project directory: %w", err))
	}

	path := filepath.Join(dir, "index.html")
	if err := atomicWrite(path, html); err != nil {
		return "", err
	}
	p.BundlePath = path

	if err := s.writeIndex(p); err != nil {
		return "", err
	}

	s.log.Info("project materialized",
		zap.String("project", p.ID),
		zap.String("path", path),
		zap.Int("artifacts", p.ArtifactCount()))
	return path, nil
}

func renderBundle(p *Project) ([]byte, error) {
	md := goldmark.New()

	data := bundleData{
		ProjectID:     p.ID,
		SessionID:     p.SessionID,
		Name:          p.Name,
		Description:   p.Description,
		Tags:          strings.Join(p.Tags, ","),
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     p.UpdatedAt.Format(time.RFC3339),
		ArtifactCount: p.ArtifactCount(),
		GeneratedAt:   time.Now().Format(time.RFC3339),
	}

	for _, a := range p.artifacts {
		var body bytes.Buffer
		if err := md.Convert([]byte(a.Content), &body); err != nil {
			return nil, errors.NewInternal(fmt.Errorf("render artifact %s: %w", a.ID, err))
		}
		data.Artifacts = append(data.Artifacts, bundleArtifact{
			ID:        a.ID,
			Kind:      a.Kind,
			Command:   a.Command,
			Title:     a.Title,
			CreatedAt: a.CreatedAt.Format(time.RFC3339),
			Body:      template.HTML(body.String()),
		})
	}

	var buf bytes.Buffer
	if err := bundleTmpl.Execute(&buf, data); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("render bundle: %w", err))
	}
	return buf.Bytes(), nil
}

// atomicWrite writes via a temp file and rename so a failed write
// never clobbers an existing bundle.
func atomicWrite(path string, content []byte) error {
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"

	if err := os.WriteFile(tempPath, content, 0600); err != nil {
		return errors.NewStorage(fmt.Errorf("failed to write bundle: %w", err))
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.NewStorage(fmt.Errorf("failed to finalize bundle: %w", err))
	}
	return nil
}

// writeIndex refreshes the project's rows in the SQLite index at the
// same commit point as the bundle.
func (s *Store) writeIndex(p *Project) error {
	if s.db == nil {
		return nil
	}

	row := &db.ProjectRow{
		ID:            p.ID,
		SessionID:     p.SessionID,
		Name:          p.Name,
		Description:   p.Description,
		Tags:          p.Tags,
		ArtifactCount: p.ArtifactCount(),
		BundlePath:    p.BundlePath,
		CreatedAt:     p.CreatedAt.Unix(),
		UpdatedAt:     p.UpdatedAt.Unix(),
	}
	if err := db.UpsertProject(s.db, row); err != nil {
		return err
	}

	artifacts := make([]db.ArtifactRow, 0, len(p.artifacts))
	for _, a := range p.artifacts {
		dataJSON := ""
		if len(a.Data) > 0 {
			raw, err := json.Marshal(a.Data)
			if err != nil {
				return errors.NewInternal(err)
			}
			dataJSON = string(raw)
		}
		artifacts = append(artifacts, db.ArtifactRow{
			ID:        a.ID,
			ProjectID: p.ID,
			Kind:      a.Kind,
			Command:   a.Command,
			Title:     a.Title,
			Content:   a.Content,
			DataJSON:  dataJSON,
			CreatedAt: a.CreatedAt.Unix(),
		})
	}
	return db.ReplaceArtifacts(s.db, p.ID, artifacts)
}

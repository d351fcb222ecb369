package project

import (
	"database/sql"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mzielinska/rarog/internal/errors"
)

// DefaultProjectName is the project auto-created on first append when
// the session has none.
const DefaultProjectName = "default"

// Store manages the projects of one session. All state is in memory;
// nothing reaches disk or the index until a project materializes.
type Store struct {
	mu          sync.Mutex
	db          *sql.DB
	projectsDir string
	log         *zap.Logger

	session  *Session
	projects []*Project
	active   *Project
}

// NewStore creates a store for a fresh session. The database handle
// may be nil, in which case materialization skips the index.
func NewStore(database *sql.DB, projectsDir string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		db:          database,
		projectsDir: projectsDir,
		log:         log,
		session:     NewSession(),
	}
}

// Session returns the owning session.
func (s *Store) Session() *Session { return s.session }

// Create adds a new project and makes it active.
func (s *Store) Create(name, description string, tags []string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewInvalidRequest("project name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.projects {
		if strings.EqualFold(p.Name, name) {
			return nil, errors.NewInvalidRequest("a project named " + p.Name + " already exists in this session")
		}
	}

	now := time.Now()
	p := &Project{
		ID:          newULID(),
		SessionID:   s.session.ID,
		Name:        name,
		Description: strings.TrimSpace(description),
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.projects = append(s.projects, p)
	s.active = p

	s.log.Debug("project created",
		zap.String("project", p.ID), zap.String("name", p.Name))
	return p, nil
}

// Switch activates the project matching idOrName: exact ID match
// first, then case-insensitive name match. Artifacts of the previous
// active project are preserved.
func (s *Store) Switch(idOrName string) (*Project, error) {
	idOrName = strings.TrimSpace(idOrName)
	if idOrName == "" {
		return nil, errors.NewInvalidRequest("project id or name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.find(idOrName)
	if err != nil {
		return nil, err
	}
	s.active = p
	return p, nil
}

// Get returns the project matching idOrName without activating it.
func (s *Store) Get(idOrName string) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(strings.TrimSpace(idOrName))
}

func (s *Store) find(idOrName string) (*Project, error) {
	for _, p := range s.projects {
		if p.ID == idOrName {
			return p, nil
		}
	}
	for _, p := range s.projects {
		if strings.EqualFold(p.Name, idOrName) {
			return p, nil
		}
	}
	return nil, errors.NewNotFound("project", idOrName)
}

// Active returns the currently active project, or nil when the
// session has none yet.
func (s *Store) Active() *Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// List returns the session's projects in creation order.
func (s *Store) List() []*Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Project, len(s.projects))
	copy(out, s.projects)
	return out
}

// Append records one artifact on the active project. When the session
// has no active project, a default one is created first.
func (s *Store) Append(kind, command, title, content string, data map[string]any) (*Project, *Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		now := time.Now()
		p := &Project{
			ID:        newULID(),
			SessionID: s.session.ID,
			Name:      DefaultProjectName,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.projects = append(s.projects, p)
		s.active = p
		s.log.Debug("default project created", zap.String("project", p.ID))
	}

	a := &Artifact{
		ID:        newULID(),
		Kind:      kind,
		Command:   command,
		Title:     title,
		Content:   content,
		Data:      data,
		CreatedAt: time.Now(),
	}
	s.active.append(a)

	return s.active, a, nil
}

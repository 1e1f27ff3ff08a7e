// Package memory provides in-memory outbound adapters, used in dev mode
// and in tests.
package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/gateward/gateward/internal/domain/scope"
)

type membershipKey struct {
	teamID  string
	subject string
}

type resourceKey struct {
	typ scope.ResourceType
	id  string
}

// ScopeStore is a mutex-guarded in-memory scope.Store.
type ScopeStore struct {
	mu          sync.RWMutex
	memberships map[membershipKey]bool
	resources   map[resourceKey]*scope.Resource
}

// NewScopeStore returns an empty store.
func NewScopeStore() *ScopeStore {
	return &ScopeStore{
		memberships: make(map[membershipKey]bool),
		resources:   make(map[resourceKey]*scope.Resource),
	}
}

// AddMembership records subject as a member of teamID. Inactive
// memberships are kept so revocation paths can be exercised.
func (s *ScopeStore) AddMembership(teamID, subject string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships[membershipKey{teamID: teamID, subject: subject}] = active
}

// PutResource inserts or replaces a resource record.
func (s *ScopeStore) PutResource(res scope.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[resourceKey{typ: res.Type, id: res.ID}] = &res
}

// FindActiveMembership implements scope.Store.
func (s *ScopeStore) FindActiveMembership(_ context.Context, teamID, subject string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	active, ok := s.memberships[membershipKey{teamID: teamID, subject: subject}]
	return ok && active, nil
}

// FindResource implements scope.Store.
func (s *ScopeStore) FindResource(_ context.Context, typ scope.ResourceType, id string) (*scope.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.resources[resourceKey{typ: typ, id: id}]
	if !ok {
		return nil, scope.ErrResourceNotFound
	}
	cp := *res
	return &cp, nil
}

type seedMember struct {
	Subject string `yaml:"subject"`
	Active  *bool  `yaml:"active"`
}

type seedTeam struct {
	ID      string       `yaml:"id"`
	Members []seedMember `yaml:"members"`
}

type seedResource struct {
	Type       string `yaml:"type"`
	ID         string `yaml:"id"`
	Visibility string `yaml:"visibility"`
	TeamID     string `yaml:"team_id"`
}

type seedFile struct {
	Teams     []seedTeam     `yaml:"teams"`
	Resources []seedResource `yaml:"resources"`
}

// LoadSeed populates the store from a YAML seed file. Members default
// to active unless the seed says otherwise.
func (s *ScopeStore) LoadSeed(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}
	for _, team := range seed.Teams {
		if team.ID == "" {
			return fmt.Errorf("seed team with empty id")
		}
		for _, m := range team.Members {
			active := m.Active == nil || *m.Active
			s.AddMembership(team.ID, m.Subject, active)
		}
	}
	for _, r := range seed.Resources {
		if r.Type == "" || r.ID == "" {
			return fmt.Errorf("seed resource missing type or id")
		}
		s.PutResource(scope.Resource{
			Type:       scope.ResourceType(r.Type),
			ID:         r.ID,
			Visibility: scope.Visibility(r.Visibility),
			TeamID:     r.TeamID,
		})
	}
	return nil
}

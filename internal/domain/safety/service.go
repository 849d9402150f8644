package safety

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// ClassTagSource supplies the substance-to-class-tag mapping the rule set
// is built from. The medicine catalog implements this.
type ClassTagSource interface {
	ClassTags(ctx context.Context) (map[string][]string, error)
}

// Service owns the interaction catalog and the current RuleSet snapshot.
// Reads (Check) are lock-free against an atomically swapped snapshot;
// catalog writes rebuild the snapshot whole so checkers never observe a
// half-updated rule graph.
type Service struct {
	rules    RuleRepository
	groups   GroupRepository
	tags     ClassTagSource
	snapshot atomic.Pointer[RuleSet]
}

func NewService(rules RuleRepository, groups GroupRepository, tags ClassTagSource) *Service {
	s := &Service{rules: rules, groups: groups, tags: tags}
	s.snapshot.Store(NewRuleSet(nil, nil, nil))
	return s
}

// Reload rebuilds the RuleSet snapshot from the stores. Called at startup
// and after any catalog mutation.
func (s *Service) Reload(ctx context.Context) error {
	rules, err := s.rules.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load interaction rules: %w", err)
	}
	groups, err := s.groups.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load allergy groups: %w", err)
	}
	var classTags map[string][]string
	if s.tags != nil {
		classTags, err = s.tags.ClassTags(ctx)
		if err != nil {
			return fmt.Errorf("load class tags: %w", err)
		}
	}
	s.snapshot.Store(NewRuleSet(rules, classTags, groups))
	return nil
}

// RuleSet returns the current snapshot.
func (s *Service) RuleSet() *RuleSet {
	return s.snapshot.Load()
}

// Check evaluates candidates against the current snapshot.
func (s *Service) Check(candidates, existingMedications, allergies []string) []Finding {
	return NewChecker(s.snapshot.Load()).Check(candidates, existingMedications, allergies)
}

// -- InteractionRule --

func (s *Service) CreateRule(ctx context.Context, r *InteractionRule) error {
	if strings.TrimSpace(r.SubstanceA) == "" || strings.TrimSpace(r.SubstanceB) == "" {
		return fmt.Errorf("both substances are required")
	}
	if !r.Severity.Valid() {
		return fmt.Errorf("invalid severity: %s", r.Severity)
	}
	if err := s.rules.Create(ctx, r); err != nil {
		return err
	}
	return s.Reload(ctx)
}

func (s *Service) GetRule(ctx context.Context, id uuid.UUID) (*InteractionRule, error) {
	return s.rules.GetByID(ctx, id)
}

func (s *Service) UpdateRule(ctx context.Context, r *InteractionRule) error {
	if !r.Severity.Valid() {
		return fmt.Errorf("invalid severity: %s", r.Severity)
	}
	if err := s.rules.Update(ctx, r); err != nil {
		return err
	}
	return s.Reload(ctx)
}

func (s *Service) DeleteRule(ctx context.Context, id uuid.UUID) error {
	if err := s.rules.Delete(ctx, id); err != nil {
		return err
	}
	return s.Reload(ctx)
}

func (s *Service) ListRules(ctx context.Context, limit, offset int) ([]*InteractionRule, int, error) {
	return s.rules.List(ctx, limit, offset)
}

// -- AllergyGroup --

func (s *Service) CreateGroup(ctx context.Context, g *AllergyGroup) error {
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(g.Members) == 0 {
		return fmt.Errorf("at least one member is required")
	}
	if err := s.groups.Create(ctx, g); err != nil {
		return err
	}
	return s.Reload(ctx)
}

func (s *Service) GetGroup(ctx context.Context, id uuid.UUID) (*AllergyGroup, error) {
	return s.groups.GetByID(ctx, id)
}

func (s *Service) UpdateGroup(ctx context.Context, g *AllergyGroup) error {
	if err := s.groups.Update(ctx, g); err != nil {
		return err
	}
	return s.Reload(ctx)
}

func (s *Service) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	if err := s.groups.Delete(ctx, id); err != nil {
		return err
	}
	return s.Reload(ctx)
}

func (s *Service) ListGroups(ctx context.Context, limit, offset int) ([]*AllergyGroup, int, error) {
	return s.groups.List(ctx, limit, offset)
}

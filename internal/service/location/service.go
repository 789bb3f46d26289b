package location

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/repository"
	"github.com/jwalitptl/citizen-api/internal/service"
	apperrors "github.com/jwalitptl/citizen-api/pkg/errors"
	"github.com/jwalitptl/citizen-api/pkg/logger"
)

// Service answers the location cascade and officer directory. The hierarchy is
// read-mostly, so lookups go through a short-lived cache; officer lists are
// invalidated on deactivation.
type Service struct {
	locations repository.LocationRepository
	officers  repository.OfficerRepository
	cache     *cache.Cache
	logger    *logger.Logger
}

func NewService(locations repository.LocationRepository, officers repository.OfficerRepository, ttl time.Duration, log *logger.Logger) *Service {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Service{
		locations: locations,
		officers:  officers,
		cache:     cache.New(ttl, 2*ttl),
		logger:    log,
	}
}

func (s *Service) Provinces(ctx context.Context) ([]*model.LocationNode, error) {
	return s.children(ctx, nil)
}

func (s *Service) DistrictsOf(ctx context.Context, provinceID uuid.UUID) ([]*model.LocationNode, error) {
	if _, err := s.node(ctx, provinceID, model.LevelProvince); err != nil {
		return nil, err
	}
	return s.children(ctx, &provinceID)
}

func (s *Service) DivisionsOf(ctx context.Context, districtID uuid.UUID) ([]*model.LocationNode, error) {
	if _, err := s.node(ctx, districtID, model.LevelDistrict); err != nil {
		return nil, err
	}
	return s.children(ctx, &districtID)
}

// OfficersOf returns the active officers of a division in insertion order.
func (s *Service) OfficersOf(ctx context.Context, divisionID uuid.UUID) ([]*model.Officer, error) {
	if _, err := s.node(ctx, divisionID, model.LevelDivision); err != nil {
		return nil, err
	}
	return s.activeOfficers(ctx, divisionID)
}

// Division returns the division with the given id, failing NotFound for any
// other id including provinces and districts.
func (s *Service) Division(ctx context.Context, id uuid.UUID) (*model.LocationNode, error) {
	return s.node(ctx, id, model.LevelDivision)
}

// ResolveDivision checks that province, district and division form one chain
// and returns the division.
func (s *Service) ResolveDivision(ctx context.Context, provinceID, districtID, divisionID *uuid.UUID) (*model.LocationNode, error) {
	if provinceID == nil || districtID == nil || divisionID == nil {
		return nil, apperrors.IncompleteSelection("province, district and division must all be selected")
	}

	chain := []struct {
		id     uuid.UUID
		level  model.LocationLevel
		parent *uuid.UUID
	}{
		{*provinceID, model.LevelProvince, nil},
		{*districtID, model.LevelDistrict, provinceID},
		{*divisionID, model.LevelDivision, districtID},
	}

	var node *model.LocationNode
	for _, link := range chain {
		var err error
		node, err = s.node(ctx, link.id, link.level)
		if apperrors.Is(err, apperrors.KindNotFound) {
			return nil, apperrors.IncompleteSelection(fmt.Sprintf("selected %s could not be resolved", levelName(link.level)))
		}
		if err != nil {
			return nil, err
		}
		if link.parent != nil && (node.ParentID == nil || *node.ParentID != *link.parent) {
			return nil, apperrors.IncompleteSelection(fmt.Sprintf("selected %s is not part of the selected %s", levelName(link.level), levelName(parentLevel(link.level))))
		}
	}
	return node, nil
}

// ResolveOfficer picks the officer for a booking. A named officer must serve
// the division; otherwise the first active officer is used.
func (s *Service) ResolveOfficer(ctx context.Context, divisionID uuid.UUID, officerID *uuid.UUID) (*model.Officer, error) {
	officers, err := s.activeOfficers(ctx, divisionID)
	if err != nil {
		return nil, err
	}
	if len(officers) == 0 {
		return nil, apperrors.IncompleteSelection("no officer serves the selected division")
	}
	if officerID == nil {
		return officers[0], nil
	}
	for _, o := range officers {
		if o.ID == *officerID {
			return o, nil
		}
	}
	return nil, apperrors.IncompleteSelection("selected officer does not serve the selected division")
}

// DeactivateOfficer removes an officer from the directory. Platform admins only.
func (s *Service) DeactivateOfficer(ctx context.Context, actor model.Actor, officerID uuid.UUID) error {
	if !actor.IsPlatformAdmin() {
		return apperrors.Forbidden("only administrators can deactivate officers")
	}

	officer, err := s.officers.Get(ctx, officerID)
	if err != nil {
		return service.StoreError("officer", err)
	}
	if err := s.officers.SetActive(ctx, officerID, false); err != nil {
		return service.StoreError("officer", err)
	}

	s.cache.Delete(officersKey(officer.DivisionID))
	s.logger.Info("Officer deactivated",
		"officer_id", officerID.String(),
		"division_id", officer.DivisionID.String(),
		"actor_id", actor.UserID.String())
	return nil
}

// ListOfficers returns the whole directory, inactive officers included.
// Platform admins only.
func (s *Service) ListOfficers(ctx context.Context, actor model.Actor) ([]*model.Officer, error) {
	if !actor.IsPlatformAdmin() {
		return nil, apperrors.Forbidden("only administrators can list all officers")
	}
	officers, err := s.officers.List(ctx)
	if err != nil {
		return nil, service.StoreError("officer", err)
	}
	return officers, nil
}

func (s *Service) ActiveOfficerCount(ctx context.Context) (int, error) {
	count, err := s.officers.CountActive(ctx)
	if err != nil {
		return 0, service.StoreError("officer", err)
	}
	return count, nil
}

func (s *Service) node(ctx context.Context, id uuid.UUID, level model.LocationLevel) (*model.LocationNode, error) {
	key := "node:" + id.String()
	var node model.LocationNode
	if cached, found := s.cache.Get(key); found {
		node = cached.(model.LocationNode)
	} else {
		loc, err := s.locations.GetLocation(ctx, id)
		if err != nil {
			return nil, service.StoreError(levelName(level), err)
		}
		node = *loc
		s.cache.Set(key, node, cache.DefaultExpiration)
	}

	if node.Level != level {
		return nil, apperrors.NotFound(levelName(level), nil)
	}
	return &node, nil
}

func (s *Service) children(ctx context.Context, parentID *uuid.UUID) ([]*model.LocationNode, error) {
	key := "children:root"
	if parentID != nil {
		key = "children:" + parentID.String()
	}

	var nodes []model.LocationNode
	if cached, found := s.cache.Get(key); found {
		nodes = cached.([]model.LocationNode)
	} else {
		list, err := s.locations.ListChildren(ctx, parentID)
		if err != nil {
			return nil, service.StoreError("location", err)
		}
		nodes = make([]model.LocationNode, 0, len(list))
		for _, n := range list {
			nodes = append(nodes, *n)
		}
		s.cache.Set(key, nodes, cache.DefaultExpiration)
	}

	out := make([]*model.LocationNode, len(nodes))
	for i := range nodes {
		n := nodes[i]
		out[i] = &n
	}
	return out, nil
}

func (s *Service) activeOfficers(ctx context.Context, divisionID uuid.UUID) ([]*model.Officer, error) {
	key := officersKey(divisionID)

	var officers []model.Officer
	if cached, found := s.cache.Get(key); found {
		officers = cached.([]model.Officer)
	} else {
		list, err := s.officers.ListActiveByDivision(ctx, divisionID)
		if err != nil {
			return nil, service.StoreError("officer", err)
		}
		officers = make([]model.Officer, 0, len(list))
		for _, o := range list {
			officers = append(officers, *o)
		}
		s.cache.Set(key, officers, cache.DefaultExpiration)
	}

	out := make([]*model.Officer, len(officers))
	for i := range officers {
		o := officers[i]
		out[i] = &o
	}
	return out, nil
}

func officersKey(divisionID uuid.UUID) string {
	return "officers:" + divisionID.String()
}

func levelName(level model.LocationLevel) string {
	switch level {
	case model.LevelProvince:
		return "province"
	case model.LevelDistrict:
		return "district"
	default:
		return "division"
	}
}

func parentLevel(level model.LocationLevel) model.LocationLevel {
	switch level {
	case model.LevelDivision:
		return model.LevelDistrict
	default:
		return model.LevelProvince
	}
}

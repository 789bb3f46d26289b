// Package testutil builds shared fixtures on top of the memory store.
package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/repository/memory"
)

// Hierarchy is Western > Colombo > Colombo Central with officer O1, plus an
// empty district and an officer-less division.
type Hierarchy struct {
	Western        *model.LocationNode
	Colombo        *model.LocationNode
	Gampaha        *model.LocationNode
	ColomboCentral *model.LocationNode
	ColomboNorth   *model.LocationNode
	O1             *model.Officer
	ServiceType    *model.ServiceType
}

func SeedHierarchy(t *testing.T, store *memory.Store) *Hierarchy {
	t.Helper()
	ctx := context.Background()
	locations := store.Locations()

	h := &Hierarchy{}
	h.Western = &model.LocationNode{Name: "Western", Level: model.LevelProvince}
	require.NoError(t, locations.CreateLocation(ctx, h.Western))

	h.Colombo = &model.LocationNode{Name: "Colombo", Level: model.LevelDistrict, ParentID: &h.Western.ID}
	require.NoError(t, locations.CreateLocation(ctx, h.Colombo))
	h.Gampaha = &model.LocationNode{Name: "Gampaha", Level: model.LevelDistrict, ParentID: &h.Western.ID}
	require.NoError(t, locations.CreateLocation(ctx, h.Gampaha))

	h.ColomboCentral = &model.LocationNode{Name: "Colombo Central", Level: model.LevelDivision, ParentID: &h.Colombo.ID}
	require.NoError(t, locations.CreateLocation(ctx, h.ColomboCentral))
	h.ColomboNorth = &model.LocationNode{Name: "Colombo North", Level: model.LevelDivision, ParentID: &h.Colombo.ID}
	require.NoError(t, locations.CreateLocation(ctx, h.ColomboNorth))

	h.O1 = &model.Officer{FullName: "O1", DivisionID: h.ColomboCentral.ID, Active: true}
	require.NoError(t, store.Officers().Create(ctx, h.O1))

	h.ServiceType = &model.ServiceType{Name: "Residence certificate", Description: "Proof of residence", Active: true}
	require.NoError(t, store.ServiceTypes().Create(ctx, h.ServiceType))
	return h
}

func Citizen() model.Actor {
	return model.Actor{UserID: uuid.New(), Role: model.RoleCitizen, Email: "citizen@example.lk"}
}

// OfficerActor acts as officer o, using the officer id as the user id.
func OfficerActor(o *model.Officer) model.Actor {
	division := o.DivisionID
	return model.Actor{UserID: o.ID, Role: model.RoleOfficer, DivisionID: &division}
}

func Admin() model.Actor {
	return model.Actor{UserID: uuid.New(), Role: model.RoleAdmin}
}

// Package seed loads the location hierarchy, officer roster and service
// catalogue from a YAML file.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/repository"
)

type File struct {
	Provinces    []Province    `yaml:"provinces"`
	ServiceTypes []ServiceType `yaml:"service_types"`
}

type Province struct {
	ID        uuid.UUID  `yaml:"id"`
	Name      string     `yaml:"name"`
	Districts []District `yaml:"districts"`
}

type District struct {
	ID        uuid.UUID  `yaml:"id"`
	Name      string     `yaml:"name"`
	Divisions []Division `yaml:"divisions"`
}

type Division struct {
	ID       uuid.UUID `yaml:"id"`
	Name     string    `yaml:"name"`
	Officers []Officer `yaml:"officers"`
}

// Officer ids double as the officer's user id, so files usually pin them.
type Officer struct {
	ID       uuid.UUID `yaml:"id"`
	FullName string    `yaml:"full_name"`
	Inactive bool      `yaml:"inactive"`
}

type ServiceType struct {
	ID          uuid.UUID `yaml:"id"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
}

type Target struct {
	Locations    repository.LocationRepository
	Officers     repository.OfficerRepository
	ServiceTypes repository.ServiceTypeRepository
}

// Summary counts what Apply wrote.
type Summary struct {
	Provinces    int
	Districts    int
	Divisions    int
	Officers     int
	ServiceTypes int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d provinces, %d districts, %d divisions, %d officers, %d service types",
		s.Provinces, s.Districts, s.Divisions, s.Officers, s.ServiceTypes)
}

func Decode(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode seed file: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer fh.Close()
	return Decode(fh)
}

func (f *File) validate() error {
	for _, p := range f.Provinces {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("province name is required")
		}
		for _, d := range p.Districts {
			if strings.TrimSpace(d.Name) == "" {
				return fmt.Errorf("district name is required (province %q)", p.Name)
			}
			for _, dv := range d.Divisions {
				if strings.TrimSpace(dv.Name) == "" {
					return fmt.Errorf("division name is required (district %q)", d.Name)
				}
				for _, o := range dv.Officers {
					if strings.TrimSpace(o.FullName) == "" {
						return fmt.Errorf("officer full_name is required (division %q)", dv.Name)
					}
				}
			}
		}
	}
	for _, st := range f.ServiceTypes {
		if strings.TrimSpace(st.Name) == "" {
			return fmt.Errorf("service type name is required")
		}
	}
	return nil
}

// Apply writes the file top-down so every parent exists before its children.
// It is not idempotent.
func Apply(ctx context.Context, t Target, f *File) (Summary, error) {
	var sum Summary
	for _, p := range f.Provinces {
		province := &model.LocationNode{ID: p.ID, Name: p.Name, Level: model.LevelProvince}
		if err := t.Locations.CreateLocation(ctx, province); err != nil {
			return sum, fmt.Errorf("province %q: %w", p.Name, err)
		}
		sum.Provinces++

		for _, d := range p.Districts {
			district := &model.LocationNode{ID: d.ID, Name: d.Name, Level: model.LevelDistrict, ParentID: &province.ID}
			if err := t.Locations.CreateLocation(ctx, district); err != nil {
				return sum, fmt.Errorf("district %q: %w", d.Name, err)
			}
			sum.Districts++

			for _, dv := range d.Divisions {
				division := &model.LocationNode{ID: dv.ID, Name: dv.Name, Level: model.LevelDivision, ParentID: &district.ID}
				if err := t.Locations.CreateLocation(ctx, division); err != nil {
					return sum, fmt.Errorf("division %q: %w", dv.Name, err)
				}
				sum.Divisions++

				for _, o := range dv.Officers {
					officer := &model.Officer{ID: o.ID, FullName: o.FullName, DivisionID: division.ID, Active: !o.Inactive}
					if err := t.Officers.Create(ctx, officer); err != nil {
						return sum, fmt.Errorf("officer %q: %w", o.FullName, err)
					}
					sum.Officers++
				}
			}
		}
	}

	for _, s := range f.ServiceTypes {
		st := &model.ServiceType{ID: s.ID, Name: s.Name, Description: s.Description, Active: true}
		if err := t.ServiceTypes.Create(ctx, st); err != nil {
			return sum, fmt.Errorf("service type %q: %w", s.Name, err)
		}
		sum.ServiceTypes++
	}
	return sum, nil
}

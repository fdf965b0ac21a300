// Package catalog holds the lab's fixed enumerations: projects that can be
// charged for a withdrawal, fabrication services, machines and the materials
// each machine accepts. The catalog is loaded from a JSON file at boot so it
// can be updated without redeploying.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

type Project struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

type Service struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type Machine struct {
	Key       string   `json:"key"`
	Name      string   `json:"name"`
	Service   string   `json:"service"`
	Materials []string `json:"materials,omitempty"`
}

type Material struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type Catalog struct {
	Projects  []Project  `json:"projects"`
	Services  []Service  `json:"services"`
	Machines  []Machine  `json:"machines"`
	Materials []Material `json:"materials"`
}

// Load reads a catalog file.
func Load(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(c.Projects) == 0 {
		return nil, fmt.Errorf("catalog %s: no projects defined", path)
	}
	return &c, nil
}

func (c *Catalog) HasProject(key string) bool {
	for _, p := range c.Projects {
		if p.Key == key {
			return true
		}
	}
	return false
}

func (c *Catalog) HasService(key string) bool {
	for _, s := range c.Services {
		if s.Key == key {
			return true
		}
	}
	return false
}

func (c *Catalog) HasMachine(key string) bool {
	for _, m := range c.Machines {
		if m.Key == key {
			return true
		}
	}
	return false
}

func (c *Catalog) HasMaterial(key string) bool {
	for _, m := range c.Materials {
		if m.Key == key {
			return true
		}
	}
	return false
}

// MaterialsFor returns the material keys a machine accepts, or nil for an
// unknown machine.
func (c *Catalog) MaterialsFor(machine string) []string {
	for _, m := range c.Machines {
		if m.Key == machine {
			return m.Materials
		}
	}
	return nil
}

// WriteExample writes a starter catalog file for a fresh deployment.
func WriteExample(path string) error {
	c := Catalog{
		Projects: []Project{
			{Key: "general", Name: "General lab use"},
			{Key: "alpha", Name: "Alpha"},
		},
		Services: []Service{
			{Key: "3d-print", Name: "3D printing"},
			{Key: "laser-cut", Name: "Laser cutting"},
			{Key: "cnc", Name: "CNC machining"},
			{Key: "fixture", Name: "Fixtures"},
		},
		Machines: []Machine{
			{Key: "prusa-mk4", Name: "Prusa MK4", Service: "3d-print", Materials: []string{"pla", "petg"}},
			{Key: "epilog-mini", Name: "Epilog Mini", Service: "laser-cut", Materials: []string{"mdf", "acrylic"}},
		},
		Materials: []Material{
			{Key: "pla", Name: "PLA"},
			{Key: "petg", Name: "PETG"},
			{Key: "mdf", Name: "MDF"},
			{Key: "acrylic", Name: "Acrylic"},
		},
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

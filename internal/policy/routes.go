package policy

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Routes is the route classification table. Public entries match exactly,
// admin and student entries match by prefix, and bypass prefixes skip the
// page policy altogether.
type Routes struct {
	Public  []string `yaml:"public"`
	Admin   []string `yaml:"admin"`
	Student []string `yaml:"student"`
	Bypass  []string `yaml:"bypass"`
}

func DefaultRoutes() Routes {
	return Routes{
		Public: []string{
			"/",
			AdminLoginPath,
			"/admin/register",
			StudentLoginPath,
			"/student/register",
		},
		Admin: []string{
			"/admin",
			"/admin/add-thesis",
			"/admin/manage-thesis",
			"/admin/pending-thesis",
			"/admin/categories",
			"/admin/files",
			"/admin/users",
			"/admin/analytics",
			"/admin/reports",
			"/admin/settings",
		},
		Student: []string{
			"/student/dashboard",
			"/student/browse",
			"/student/categories",
			"/student/favorites",
			"/student/downloads",
			"/student/settings",
			"/student/profile",
		},
		Bypass: []string{
			"/api",
			"/static",
			"/images",
			"/favicon.ico",
			"/health",
			"/metrics",
		},
	}
}

// LoadRoutes reads a YAML route table. Sections left out of the file keep
// their built-in values.
func LoadRoutes(path string) (Routes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Routes{}, fmt.Errorf("failed to read routes file: %w", err)
	}

	var loaded Routes
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&loaded); err != nil {
		return Routes{}, fmt.Errorf("failed to parse routes file: %w", err)
	}

	routes := DefaultRoutes()
	if loaded.Public != nil {
		routes.Public = loaded.Public
	}
	if loaded.Admin != nil {
		routes.Admin = loaded.Admin
	}
	if loaded.Student != nil {
		routes.Student = loaded.Student
	}
	if loaded.Bypass != nil {
		routes.Bypass = loaded.Bypass
	}
	return routes, nil
}

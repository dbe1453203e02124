package app

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
)

// SeedFile is the YAML document read from ROLLCALL_SEED_FILE:
//
//	users:
//	  - role: teacher
//	    display_name: Ms Frizzle
//	    username: frizzle
//	    email: frizzle@school.test
//	    password: magic-bus
//	    department_head: true
//	    attributes:
//	      subject: science
type SeedFile struct {
	Users []SeedEntry `yaml:"users"`
}

type SeedEntry struct {
	Role           string            `yaml:"role"`
	DisplayName    string            `yaml:"display_name"`
	Username       string            `yaml:"username"`
	Email          string            `yaml:"email"`
	Password       string            `yaml:"password"`
	DepartmentHead bool              `yaml:"department_head"`
	Attributes     map[string]string `yaml:"attributes"`
}

// LoadSeedFile parses a seed document. Unknown roles are rejected here so a
// typo fails startup instead of silently skipping a record.
func LoadSeedFile(path string) ([]domain.SeedUser, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) ([]domain.SeedUser, error) {
	var doc SeedFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	users := make([]domain.SeedUser, 0, len(doc.Users))
	for i, e := range doc.Users {
		role, ok := domain.ParseRole(e.Role)
		if !ok {
			return nil, fmt.Errorf("seed entry %d: unknown role %q", i, e.Role)
		}
		users = append(users, domain.SeedUser{
			Role:           role,
			DisplayName:    e.DisplayName,
			Username:       e.Username,
			Email:          e.Email,
			Password:       e.Password,
			DepartmentHead: e.DepartmentHead,
			Attributes:     e.Attributes,
		})
	}
	return users, nil
}

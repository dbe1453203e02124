package domain

// SeedUser describes a directory record to create at startup. Password is
// plaintext and hashed before it reaches the store.
type SeedUser struct {
	Role           Role
	DisplayName    string
	Username       string
	Email          string
	Password       string
	DepartmentHead bool
	Attributes     map[string]string
}

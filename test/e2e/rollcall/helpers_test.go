package rollcall_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/rollcall/pkg/rollcallsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for rollcall daemon end-to-end tests.
 * This includes container setup, the seeded directory and assertions.
 */

const (
	testImageName = "rollcalld-test:latest"

	bootstrapUsername = "root"
	bootstrapPassword = "Bootstrap123!"

	teacherUsername = "frizzle"
	teacherEmail    = "frizzle@school.test"
	teacherPassword = "magic-bus"

	studentUsername = "arnold"
	studentEmail    = "arnold@school.test"
	studentPassword = "field-trip"

	headEmail    = "head@school.test"
	headPassword = "department"

	seedPath = "/tmp/seed.yaml"
)

// seedYAML is copied into every container and applied at startup.
var seedYAML = fmt.Sprintf(`users:
  - role: teacher
    display_name: Ms Frizzle
    username: %s
    email: %s
    password: %s
    attributes:
      subject: science
  - role: student
    display_name: Arnold
    username: %s
    email: %s
    password: %s
  - role: dept_head
    display_name: Head of Science
    email: %s
    password: %s
`, teacherUsername, teacherEmail, teacherPassword,
	studentUsername, studentEmail, studentPassword,
	headEmail, headPassword)

// TestMain manages the test lifecycle, builds the Docker image once before
// all tests and cleans it up after all tests complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building rollcalld Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up rollcalld Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

// buildDockerImage builds the test Docker image.
func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/rollcalld/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

// cleanupDockerImage removes the test Docker image.
func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

func baseEnv() map[string]string {
	return map[string]string{
		"ROLLCALL_SEED_FILE":          seedPath,
		"ROLLCALL_BOOTSTRAP_ENABLED":  "true",
		"ROLLCALL_BOOTSTRAP_USERNAME": bootstrapUsername,
		"ROLLCALL_BOOTSTRAP_PASSWORD": bootstrapPassword,
		"ROLLCALL_MAIL_BACKEND":       "console",
		"ENV":                         "test",
		"LOG_LEVEL":                   "info",
		"LOG_FORMAT":                  "json",
		// Tests make many rapid reset calls which would otherwise hit the strict limits
		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "1000",
	}
}

// setupContainer starts the daemon with the seeded directory and returns an
// SDK client pointed at it.
func setupContainer(t *testing.T, overrides map[string]string) *rollcallsdk.Client {
	t.Helper()
	ctx := context.Background()

	env := baseEnv()
	for k, v := range overrides {
		env[k] = v
	}

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		Files: []testcontainers.ContainerFile{{
			Reader:            strings.NewReader(seedYAML),
			ContainerFilePath: seedPath,
			FileMode:          0o644,
		}},
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	return rollcallsdk.NewClient(fmt.Sprintf("http://%s:%s", host, mappedPort.Port()))
}

// login signs in and asserts the session belongs to the requested role.
func login(t *testing.T, client *rollcallsdk.Client, role, identifier, password string) *rollcallsdk.SessionResponse {
	t.Helper()

	sess, err := client.Login(t.Context(), rollcallsdk.LoginRequest{
		Role:       role,
		Identifier: identifier,
		Password:   password,
	})
	require.NoError(t, err, "login as %s/%s should succeed", role, identifier)
	require.Equal(t, role, sess.Role)
	return sess
}

// assertAPIError checks the error carries the expected stable code.
func assertAPIError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)

	var apiErr *rollcallsdk.APIError
	require.True(t, errors.As(err, &apiErr), "expected an APIError, got %T: %v", err, err)
	require.Equal(t, code, apiErr.Code)
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *rollcallsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}

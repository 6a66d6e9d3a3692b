package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse/internal/platform/auth"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	names := make([]string, 0)
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"product-service", "inventory-service", "migrate", "token"})
}

func TestTokenCommand_IssuesVerifiableToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-test-secret-0123456789abcdef")
	t.Setenv("JWT_ISSUER", "warehouse")
	t.Setenv("JWT_AUDIENCE", "warehouse-api")

	out, err := execute(t, "token", "--subject", "alice", "--name", "Alice", "--roles", "read")
	require.NoError(t, err)

	v, err := auth.NewVerifier(auth.Config{
		Secret:   []byte("cli-test-secret-0123456789abcdef"),
		Issuer:   "warehouse",
		Audience: "warehouse-api",
	})
	require.NoError(t, err)
	p, err := v.Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Subject)
	assert.Equal(t, []string{"read"}, p.Roles)
}

func TestTokenCommand_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := execute(t, "token")
	assert.Error(t, err)
}

func TestMigrateCommand_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warehouse.db")

	out, err := execute(t, "migrate", "--driver", "sqlite", "--dsn", path)
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied (sqlite)")

	out, err = execute(t, "migrate", "--driver", "sqlite", "--dsn", path)
	require.NoError(t, err, "re-running is a no-op")
	assert.Contains(t, out, "migrations applied")
}

func TestMigrateCommand_UnknownDriver(t *testing.T) {
	_, err := execute(t, "migrate", "--driver", "oracle", "--dsn", "x")
	assert.Error(t, err)
}

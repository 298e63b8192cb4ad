package migrate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ExtractUp(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id INT);\n-- +migrate Down\nDROP TABLE a;\n"

	up := ExtractUp(content)
	assert.Contains(t, up, "CREATE TABLE a")
	assert.NotContains(t, up, "DROP TABLE")

	assert.Equal(t, "SELECT 1;", ExtractUp("SELECT 1;"))
}

func Test_EmbeddedFilesOrdered(t *testing.T) {
	names, err := files(migrationFS)
	require.NoError(t, err)

	require.Equal(t, []string{"0001_tenants.sql", "0002_users.sql", "0003_sessions.sql"}, names)

	for _, name := range names {
		data, err := migrationFS.ReadFile("sql/" + name)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(data), upMarker), name)
	}
}

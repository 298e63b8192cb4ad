package resource_test

import (
	"testing"

	"github.com/jcpaschoal/tenantauth/business/types/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Parse(t *testing.T) {
	users, err := resource.Parse("USERS")
	require.NoError(t, err)
	assert.True(t, users.Equal(resource.Users))

	sessions, err := resource.Parse("SESSIONS")
	require.NoError(t, err)
	assert.True(t, sessions.Equal(resource.Sessions))

	_, err = resource.Parse("TENANT")
	assert.Error(t, err)
}

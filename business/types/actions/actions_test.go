package actions_test

import (
	"testing"

	"github.com/jcpaschoal/tenantauth/business/types/actions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Parse(t *testing.T) {
	get, err := actions.Parse("GET")
	require.NoError(t, err)
	assert.True(t, get.Equal(actions.Get))

	list, err := actions.Parse("LIST")
	require.NoError(t, err)
	assert.True(t, list.Equal(actions.List))

	for _, name := range []string{"CREATE", "UPDATE", "DELETE", "get", ""} {
		_, err := actions.Parse(name)
		assert.Error(t, err, name)
	}

	assert.Panics(t, func() { actions.MustParse("DELETE") })
}

package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	id := uuid.New()

	for _, actorType := range []string{ActorBusiness, ActorCustomer} {
		token, err := GenerateToken(testSecret, id, actorType, time.Hour)
		require.NoError(t, err)

		parsedID, parsedType, err := ParseToken(testSecret, token)
		require.NoError(t, err)
		assert.Equal(t, id, parsedID)
		assert.Equal(t, actorType, parsedType)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(testSecret, uuid.New(), ActorBusiness, time.Hour)
	require.NoError(t, err)

	_, _, err = ParseToken("other-secret", token)
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken(testSecret, uuid.New(), ActorCustomer, -time.Minute)
	require.NoError(t, err)

	_, _, err = ParseToken(testSecret, token)
	assert.Error(t, err)
}

func TestParseTokenGarbage(t *testing.T) {
	_, _, err := ParseToken(testSecret, "not.a.token")
	assert.Error(t, err)
}

func TestPageMeta(t *testing.T) {
	meta := PageMeta(Pagination{Page: 2, Limit: 20, Offset: 20}, 45)
	assert.Equal(t, 2, meta["page"])
	assert.Equal(t, 20, meta["limit"])
	assert.Equal(t, int64(45), meta["total"])
	assert.Equal(t, int64(3), meta["pages"])

	empty := PageMeta(Pagination{Page: 1, Limit: 20}, 0)
	assert.Equal(t, int64(0), empty["pages"])
}

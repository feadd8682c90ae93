package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTags(t *testing.T) {
	tags, err := ParseTags(`{"car_type":"suv","company":"Toyota","dealer":"Acme"}`)
	require.NoError(t, err)
	assert.Equal(t, Tags{CarType: "suv", Company: "Toyota", Dealer: "Acme"}, tags)

	tags, err = ParseTags(`{"car_type":"","company":"","dealer":""}`)
	require.NoError(t, err)
	assert.Equal(t, Tags{}, tags)

	for _, raw := range []string{
		``,
		`not json`,
		`null`,
		`[]`,
		`{"car_type":"suv","company":"Toyota"}`,
		`{"car_type":1,"company":"Toyota","dealer":"Acme"}`,
	} {
		_, err := ParseTags(raw)
		assert.Truef(t, IsValidation(err), "raw=%q err=%v", raw, err)
	}
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("create: %w", Persistence("store failed", cause))

	assert.Equal(t, KindPersistence, KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindPersistence, KindOf(errors.New("plain")))

	assert.True(t, IsNotFound(NotFound("car not found")))
	assert.True(t, IsUnauthorized(Unauthorized("invalid credentials")))
	assert.False(t, IsValidation(nil))
	assert.Equal(t, "car not found", NotFound("car not found").Error())
}

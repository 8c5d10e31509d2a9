package drive

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestEscapeQuery(t *testing.T) {
	assert.Equal(t, `report`, escapeQuery(`report`))
	assert.Equal(t, `o\'brien.txt`, escapeQuery(`o'brien.txt`))
	assert.Equal(t, `a\\b`, escapeQuery(`a\b`))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&googleapi.Error{Code: 404}))
	assert.True(t, isNotFound(errors.Wrap(&googleapi.Error{Code: 404}, "lookup")))

	assert.False(t, isNotFound(&googleapi.Error{Code: 403}))
	assert.False(t, isNotFound(errors.New("connection reset")))
}

package firestore

import (
	"errors"
	"testing"

	"heartbridge/internal/docstore"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestMapErr(t *testing.T) {
	t.Parallel()

	assert.NoError(t, mapErr(nil, "articles", "a1"))

	err := mapErr(status.Error(codes.NotFound, "no document"), "articles", "a1")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	assert.Contains(t, err.Error(), "articles/a1")

	other := errors.New("deadline")
	assert.Equal(t, other, mapErr(other, "articles", "a1"))

	denied := status.Error(codes.PermissionDenied, "rules")
	assert.False(t, errors.Is(mapErr(denied, "articles", "a1"), docstore.ErrNotFound))
}

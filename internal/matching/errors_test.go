package matching

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfStageError(t *testing.T) {
	err := newStageError("match", KindHallucination, "id outside candidate set")
	assert.Equal(t, KindHallucination, KindOf(err))
	assert.False(t, IsTransient(err))
}

func TestKindOfWrappedStageError(t *testing.T) {
	cause := newStageError("candidates", KindNoCandidates, "nothing found")
	err := fmt.Errorf("run card: %w", cause)
	assert.Equal(t, KindNoCandidates, KindOf(err))
}

func TestKindOfUnclassifiedErrorIsTransient(t *testing.T) {
	assert.Equal(t, KindTransient, KindOf(errors.New("connection reset")))
	assert.True(t, IsTransient(errors.New("connection reset")))
}

func TestIsTransientNilError(t *testing.T) {
	assert.False(t, IsTransient(nil))
}

func TestStageErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := wrapStageError("download", KindTransient, cause, "download cards/abc")

	assert.Equal(t, "download: download cards/abc: boom", err.Error())
	assert.Equal(t, cause, errors.Unwrap(err))

	bare := newStageError("extract", KindSchemaInvalid, "bad output")
	assert.Equal(t, "extract: bad output", bare.Error())
	assert.Nil(t, errors.Unwrap(bare))
}

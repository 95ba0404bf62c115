package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineStageNext(t *testing.T) {
	next, err := StageIntroVideo.Next()
	require.NoError(t, err)
	assert.Equal(t, StageProfileImage, next)

	next, err = StageProfileImage.Next()
	require.NoError(t, err)
	assert.Equal(t, StageBodyMap, next)

	next, err = StageBodyMap.Next()
	require.NoError(t, err)
	assert.Equal(t, StageCompleted, next)

	_, err = StageCompleted.Next()
	assert.Error(t, err)
	_, err = StageFailed.Next()
	assert.Error(t, err)
}

func TestPipelineStageTerminal(t *testing.T) {
	assert.False(t, StageIntroVideo.Terminal())
	assert.False(t, StageProfileImage.Terminal())
	assert.False(t, StageBodyMap.Terminal())
	assert.True(t, StageCompleted.Terminal())
	assert.True(t, StageFailed.Terminal())
}

func TestJobKindForStage(t *testing.T) {
	kind, err := JobKindForStage(StageIntroVideo)
	require.NoError(t, err)
	assert.Equal(t, JobKindVideo, kind)

	for _, stage := range []PipelineStage{StageProfileImage, StageBodyMap} {
		kind, err = JobKindForStage(stage)
		require.NoError(t, err)
		assert.Equal(t, JobKindImage, kind)
	}

	_, err = JobKindForStage(StageCompleted)
	assert.Error(t, err)
}

func TestOwnerKindForStage(t *testing.T) {
	tests := []struct {
		stage PipelineStage
		want  string
	}{
		{StageIntroVideo, OwnerKindVideo},
		{StageProfileImage, OwnerKindPersonaProfile},
		{StageBodyMap, OwnerKindPersonaBody},
	}
	for _, tt := range tests {
		got, err := OwnerKindForStage(tt.stage)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := OwnerKindForStage(StageFailed)
	assert.Error(t, err)
}

package export

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/activadee/videocraft-render/internal/toolchain"
)

func TestAdjustedTimelineStart_SubtractsVideoStartOffset(t *testing.T) {
	assert.Equal(t, 20.0, adjustedTimelineStart(30, 10))
	assert.Equal(t, 30.0, adjustedTimelineStart(30, 0))
}

func TestAdjustedTimelineStart_ClampsNegativeResultToZero(t *testing.T) {
	assert.Equal(t, 0.0, adjustedTimelineStart(5, 10))
}

func TestStageProgress_DividesEquallyAcrossStages(t *testing.T) {
	assert.Equal(t, 0, stageProgress(0, 9))
	assert.Equal(t, 44, stageProgress(4, 9))
	assert.Equal(t, 88, stageProgress(8, 9))
}

func TestProgressAdapter_NilOnProgressYieldsNilCallback(t *testing.T) {
	assert.Nil(t, progressAdapter(nil, StageSegments))
}

func TestProgressAdapter_ForwardsDetailWithSentinelProgress(t *testing.T) {
	var gotStage Stage
	var gotProgress int
	var gotDetail string
	onProgress := func(stage Stage, progress int, detail string) {
		gotStage, gotProgress, gotDetail = stage, progress, detail
	}

	adapter := progressAdapter(onProgress, StageCombining)
	adapter(toolchain.Progress{Speed: 1.5, FPS: 29.97})

	assert.Equal(t, StageCombining, gotStage)
	assert.Equal(t, -1, gotProgress, "detail-only ticks must not claim a stage percentage")
	assert.Contains(t, gotDetail, "1.50x")
}

func TestRunState_WarnAppendsFormattedMessage(t *testing.T) {
	st := &runState{}
	st.warn("segment %d skipped: %s", 3, "too short")
	assert.Equal(t, []string{"segment 3 skipped: too short"}, st.warnings)
}

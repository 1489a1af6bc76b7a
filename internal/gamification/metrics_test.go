package gamification

import (
	"career_advisor_backend/internal/model"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fixture 生成 sections 个分组，每组 perSection 个主题，ID 形如 s1_t1
func fixture(sections, perSection int) *model.Roadmap {
	stages := []model.Stage{model.StageBeginner, model.StageIntermediate, model.StageAdvanced, model.StageAdvanced}
	r := &model.Roadmap{Career: "data scientist", Domain: "technology"}
	for i := 1; i <= sections; i++ {
		s := model.RoadmapSection{
			ID:             fmt.Sprintf("s%d", i),
			Title:          fmt.Sprintf("S%d", i),
			Stage:          stages[(i-1)%len(stages)],
			EstimatedWeeks: 4,
		}
		for j := 1; j <= perSection; j++ {
			s.Topics = append(s.Topics, model.RoadmapTopic{
				ID:             fmt.Sprintf("s%d_t%d", i, j),
				Title:          fmt.Sprintf("Topic %d.%d", i, j),
				EstimatedHours: 2,
			})
		}
		r.Sections = append(r.Sections, s)
	}
	return r
}

func completedSet(r *model.Roadmap, n int) Set {
	return NewSet(r.TopicIDs()[:n])
}

func TestPercentFormula(t *testing.T) {
	r := fixture(4, 5)
	m := ComputeMetrics(r, completedSet(r, 7))

	assert.Equal(t, 20, m.TotalTopics)
	assert.Equal(t, 7, m.CompletedTopics)
	assert.Equal(t, 35, m.CompletionPercent)
	assert.Equal(t, "S2", m.CurrentSection)
	assert.Equal(t, model.StageIntermediate, m.CurrentStage)
	assert.Equal(t, "Topic 2.3", m.NextTopicTitle)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, Percent(0, 0))
	assert.Equal(t, 0, Percent(3, 0))
	assert.Equal(t, 33, Percent(1, 3))
	assert.Equal(t, 66, Percent(2, 3))
	assert.Equal(t, 100, Percent(3, 3))
	assert.Equal(t, 100, Percent(5, 3))
	assert.Equal(t, 0, Percent(-1, 3))
}

func TestMilestoneBoundaries(t *testing.T) {
	r := fixture(1, 100)

	cases := []struct {
		completed int
		want      Milestones
	}{
		{0, Milestones{}},
		{24, Milestones{}},
		{25, Milestones{Milestone25: true}},
		{50, Milestones{Milestone25: true, Milestone50: true}},
		{75, Milestones{Milestone25: true, Milestone50: true, Milestone75: true}},
		{99, Milestones{Milestone25: true, Milestone50: true, Milestone75: true}},
		{100, Milestones{Milestone25: true, Milestone50: true, Milestone75: true, MilestoneComplete: true, SectionCompleted: true}},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d%%", tc.completed), func(t *testing.T) {
			m := ComputeMetrics(r, completedSet(r, tc.completed))
			require.Equal(t, tc.completed, m.CompletionPercent)
			if diff := cmp.Diff(tc.want, m.Milestones); diff != "" {
				t.Errorf("milestones mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestActiveSectionSelection(t *testing.T) {
	r := fixture(3, 3)
	// S1 全部完成，S2 完成第 1、3 个，S3 未开始
	done := NewSet([]string{"s1_t1", "s1_t2", "s1_t3", "s2_t1", "s2_t3"})

	idx, all := ActiveSection(r, done)
	assert.Equal(t, 1, idx)
	assert.False(t, all)

	m := ComputeMetrics(r, done)
	assert.Equal(t, "S2", m.CurrentSection)
	assert.Equal(t, "Topic 2.2", m.NextTopicTitle)
	assert.False(t, m.Milestones.SectionCompleted)

	want := []SectionProgress{
		{ID: "s1", Title: "S1", Stage: model.StageBeginner, TotalTopics: 3, CompletedTopics: 3, Percent: 100, Completed: true},
		{ID: "s2", Title: "S2", Stage: model.StageIntermediate, TotalTopics: 3, CompletedTopics: 2, Percent: 66},
		{ID: "s3", Title: "S3", Stage: model.StageAdvanced, TotalTopics: 3},
	}
	if diff := cmp.Diff(want, m.Sections); diff != "" {
		t.Errorf("sections mismatch (-want +got):\n%s", diff)
	}
}

func TestAllCompletePointsAtLastSection(t *testing.T) {
	r := fixture(3, 2)
	m := ComputeMetrics(r, NewSet(r.TopicIDs()))

	assert.Equal(t, "S3", m.CurrentSection)
	assert.Equal(t, NoNextTopic, m.NextTopicTitle)
	assert.True(t, m.Milestones.SectionCompleted)
	assert.True(t, m.Milestones.MilestoneComplete)
	assert.Zero(t, m.EstimatedWeeksRemaining)
	assert.Zero(t, m.EstimatedHoursRemaining)
}

func TestEmptyRoadmap(t *testing.T) {
	m := ComputeMetrics(&model.Roadmap{}, NewSet([]string{"x"}))

	want := Metrics{
		CurrentSection: NotStarted,
		CurrentStage:   model.StageBeginner,
		NextTopicTitle: NoNextTopic,
		Sections:       []SectionProgress{},
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("metrics mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, NotStarted, CurrentSectionTitle(&model.Roadmap{}, nil))

	hollow := &model.Roadmap{Sections: []model.RoadmapSection{
		{ID: "a", Title: "A"},
		{ID: "b", Title: "B", Stage: model.StageAdvanced},
	}}
	m = ComputeMetrics(hollow, NewSet())
	assert.Equal(t, 0, m.TotalTopics)
	assert.Equal(t, 0, m.CompletionPercent)
	assert.Equal(t, NotStarted, m.CurrentSection)
	assert.Equal(t, model.StageBeginner, m.CurrentStage)
	assert.Equal(t, NoNextTopic, m.NextTopicTitle)
	assert.False(t, m.Milestones.SectionCompleted)
	assert.False(t, m.Milestones.MilestoneComplete)
	require.Len(t, m.Sections, 2)
	assert.False(t, m.Sections[0].Completed)
	assert.Equal(t, NotStarted, CurrentSectionTitle(hollow, NewSet()))
}

func TestForeignTopicIDsAreIgnored(t *testing.T) {
	r := fixture(2, 2)
	done := NewSet([]string{"s1_t1", "other_roadmap_topic", "s1_t1"})

	assert.Equal(t, 1, CountCompleted(r, done))
	m := ComputeMetrics(r, done)
	assert.Equal(t, 1, m.CompletedTopics)
	assert.Equal(t, 25, m.CompletionPercent)
}

func TestMetricsAreDeterministic(t *testing.T) {
	r := fixture(4, 5)
	done := completedSet(r, 11)
	first := ComputeMetrics(r, done)
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, ComputeMetrics(r, done)); diff != "" {
			t.Fatalf("run %d differs:\n%s", i, diff)
		}
	}
}

func TestRemainingEstimates(t *testing.T) {
	r := fixture(2, 4)
	// S1 完成一半：4 周 * 2/4 = 2；S2 未开始：4 周
	m := ComputeMetrics(r, NewSet([]string{"s1_t1", "s1_t2"}))
	assert.Equal(t, 6, m.EstimatedWeeksRemaining)
	assert.InDelta(t, 12.0, m.EstimatedHoursRemaining, 0.001)
}

func TestSectionWithoutStageDefaultsToBeginner(t *testing.T) {
	r := &model.Roadmap{Sections: []model.RoadmapSection{{ID: "a", Title: "Intro", Topics: []model.RoadmapTopic{{ID: "t1", Title: "One"}}}}}
	m := ComputeMetrics(r, nil)
	assert.Equal(t, model.StageBeginner, m.CurrentStage)
	assert.Equal(t, "One", m.NextTopicTitle)
}

package evalreport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarsy/pkg/evalengine"
)

func TestAlignHandlesMissingTasks(t *testing.T) {
	records := []Record{
		{ID: "r1", Result: evalengine.RecordResult{TaskResults: map[string]evalengine.TaskResult{
			"t1": {Passed: true, Actual: 0.9},
			"t2": {Passed: false, Actual: 0.2},
		}}},
		{ID: "r2", Result: evalengine.RecordResult{TaskResults: map[string]evalengine.TaskResult{
			"t1": {Passed: true, Actual: 0.8},
		}}},
	}

	report := Align(records)
	assert.Equal(t, []string{"t1", "t2"}, report.TaskIDs)
	assert.Len(t, report.Cells, 4)

	var r2t2 *Cell
	for i := range report.Cells {
		if report.Cells[i].RecordID == "r2" && report.Cells[i].TaskID == "t2" {
			r2t2 = &report.Cells[i]
		}
	}
	require.NotNil(t, r2t2)
	assert.True(t, r2t2.Skipped)
}

func TestScoresFor(t *testing.T) {
	records := []Record{
		{ID: "r1", Result: evalengine.RecordResult{TaskResults: map[string]evalengine.TaskResult{"score": {Actual: 0.9}}}},
		{ID: "r2", Result: evalengine.RecordResult{TaskResults: map[string]evalengine.TaskResult{"score": {Actual: 0.4}}}},
	}
	report := Align(records)
	scores := report.ScoresFor("score")
	assert.ElementsMatch(t, []float64{0.9, 0.4}, scores)
}

func TestBuildHistogramDistributesBins(t *testing.T) {
	scores := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	h := BuildHistogram(scores, 10)
	total := 0
	for _, c := range h.Bins {
		total += c
	}
	assert.Equal(t, 10, total)
	assert.Equal(t, 0.0, h.Min)
	assert.Equal(t, 9.0, h.Max)
}

func TestBuildHistogramSingleValueCollapses(t *testing.T) {
	h := BuildHistogram([]float64{5, 5, 5}, 10)
	assert.Equal(t, 3, h.Bins[0])
}

func TestBuildHistogramEmpty(t *testing.T) {
	h := BuildHistogram(nil, 10)
	for _, c := range h.Bins {
		assert.Equal(t, 0, c)
	}
}

func TestWriteCSVIncludesHeaderAndRows(t *testing.T) {
	records := []Record{
		{ID: "r1", Result: evalengine.RecordResult{TaskResults: map[string]evalengine.TaskResult{
			"t1": {Passed: true, Actual: "ok", Message: "matched"},
		}}},
	}
	report := Align(records)

	var buf strings.Builder
	err := WriteCSV(&buf, report, map[string]string{"r1": ""})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "record_id,task_id,passed,actual,message,workflow_error")
	assert.Contains(t, out, "r1,t1,true,ok,matched,")
}

func TestClusterByEmbeddingGroupsNearbyPoints(t *testing.T) {
	embeddings := []Embedding{
		{RecordID: "a", Vector: []float64{0, 0}},
		{RecordID: "b", Vector: []float64{0.1, 0.1}},
		{RecordID: "c", Vector: []float64{10, 10}},
		{RecordID: "d", Vector: []float64{10.1, 10.1}},
	}
	clusters, err := ClusterByEmbedding(embeddings, 2, 50)
	require.NoError(t, err)
	require.Len(t, clusters, 2)

	total := 0
	for _, c := range clusters {
		total += len(c.Members)
	}
	assert.Equal(t, 4, total)
}

func TestClusterByEmbeddingRejectsEmpty(t *testing.T) {
	_, err := ClusterByEmbedding(nil, 2, 10)
	assert.Error(t, err)
}

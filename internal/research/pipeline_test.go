// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/debrief-engine/internal/history"
	"github.com/pdiddy/debrief-engine/internal/poll"
	"github.com/pdiddy/debrief-engine/internal/topics"
	"github.com/pdiddy/debrief-engine/pkg/types"
)

func writeTopic(t *testing.T, dataDir, name, debrief string) string {
	t.Helper()
	dir := filepath.Join(dataDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, topics.DebriefFile), []byte(debrief), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

const pipelineTasks = `{"tasks":[
	{"task_type":"GapFilling","query":"resolve stale cache reads","context":"user saw stale data","priority":9},
	{"task_type":"NoveltyCheck","query":"new release notes","context":"old version pinned","priority":7},
	{"task_type":"CrossPollination","query":"low value idea","context":"tangent","priority":4}
]}`

func TestEnhanceTopic(t *testing.T) {
	topicDir := writeTopic(t, t.TempDir(), "golang", "### Goals\n\nShip the cache fix.\n")
	gen := &mockGenerator{response: pipelineTasks}
	res := &mockResearcher{result: poll.Result{
		Findings:      "Cache keys were reused. See https://example.com/fix for details.",
		InteractionID: "int-1",
	}}
	rec := &mockRecorder{}
	e := newTestEngine(gen, res, rec)

	var buf bytes.Buffer
	enhanced, err := e.EnhanceTopic(context.Background(), topicDir, "golang", &buf)
	if err != nil {
		t.Fatalf("EnhanceTopic() error = %v", err)
	}
	if !enhanced {
		t.Fatal("EnhanceTopic() = false, want true")
	}

	// Only the two tasks at or above the priority bar reach the batch.
	if res.calls != 1 {
		t.Fatalf("research calls = %d, want 1", res.calls)
	}
	query := res.queries[0]
	if !strings.Contains(query, "resolve stale cache reads") || !strings.Contains(query, "new release notes") {
		t.Error("batch query missing a high-priority task")
	}
	if strings.Contains(query, "low value idea") {
		t.Error("batch query includes a task below the priority bar")
	}

	content, err := topics.ReadResearch(topicDir)
	if err != nil {
		t.Fatal(err)
	}
	if !HasInsights(content) {
		t.Fatal("research artifact missing the insights marker")
	}
	for _, want := range []string{
		"Batch research: 2 tasks",
		"Cache keys were reused.",
		"- https://example.com/fix",
		"*Confidence: 5/10 | Priority: 9/10*",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("research artifact missing %q", want)
		}
	}

	if len(rec.runs) != 1 {
		t.Fatalf("recorded runs = %d, want 1", len(rec.runs))
	}
	run := rec.runs[0]
	if run.Status != history.StatusCompleted {
		t.Errorf("run.Status = %q", run.Status)
	}
	if run.Kind != history.KindTopic {
		t.Errorf("run.Kind = %q", run.Kind)
	}
	if run.Topic != "golang" {
		t.Errorf("run.Topic = %q", run.Topic)
	}
	if run.InteractionID != "int-1" {
		t.Errorf("run.InteractionID = %q", run.InteractionID)
	}
}

func TestEnhanceTopicSecondRunSkips(t *testing.T) {
	topicDir := writeTopic(t, t.TempDir(), "golang", "### Goals\n\nShip it.\n")
	gen := &mockGenerator{response: pipelineTasks}
	res := &mockResearcher{result: poll.Result{Findings: "findings"}}
	e := newTestEngine(gen, res, nil)

	var buf bytes.Buffer
	if _, err := e.EnhanceTopic(context.Background(), topicDir, "golang", &buf); err != nil {
		t.Fatalf("first EnhanceTopic() error = %v", err)
	}
	first, err := topics.ReadResearch(topicDir)
	if err != nil {
		t.Fatal(err)
	}

	enhanced, err := e.EnhanceTopic(context.Background(), topicDir, "golang", &buf)
	if err != nil {
		t.Fatalf("second EnhanceTopic() error = %v", err)
	}
	if enhanced {
		t.Error("second EnhanceTopic() = true, want false")
	}
	if gen.calls != 1 {
		t.Errorf("model calls = %d, want 1 (no re-identification)", gen.calls)
	}
	if res.calls != 1 {
		t.Errorf("research calls = %d, want 1", res.calls)
	}

	second, err := topics.ReadResearch(topicDir)
	if err != nil {
		t.Fatal(err)
	}
	if second != first {
		t.Error("second run changed the research artifact")
	}
}

func TestEnhanceTopicNoTasks(t *testing.T) {
	topicDir := writeTopic(t, t.TempDir(), "quiet", "### Goals\n\nNothing open.\n")
	gen := &mockGenerator{response: `{"tasks":[]}`}
	res := &mockResearcher{}
	e := newTestEngine(gen, res, nil)

	var buf bytes.Buffer
	enhanced, err := e.EnhanceTopic(context.Background(), topicDir, "quiet", &buf)
	if err != nil {
		t.Fatalf("EnhanceTopic() error = %v", err)
	}
	if enhanced {
		t.Error("EnhanceTopic() = true, want false")
	}
	if res.calls != 0 {
		t.Errorf("research calls = %d, want 0", res.calls)
	}
	if _, err := os.Stat(filepath.Join(topicDir, topics.ResearchFile)); !os.IsNotExist(err) {
		t.Error("research artifact written despite no tasks")
	}
}

func TestEnhanceTopicBelowPriorityBar(t *testing.T) {
	topicDir := writeTopic(t, t.TempDir(), "minor", "### Notes\n\nSmall stuff.\n")
	gen := &mockGenerator{
		response: `{"tasks":[{"task_type":"GapFilling","query":"tiny question","context":"c","priority":3}]}`,
	}
	res := &mockResearcher{}
	e := newTestEngine(gen, res, nil)

	var buf bytes.Buffer
	enhanced, err := e.EnhanceTopic(context.Background(), topicDir, "minor", &buf)
	if err != nil {
		t.Fatalf("EnhanceTopic() error = %v", err)
	}
	if enhanced {
		t.Error("EnhanceTopic() = true, want false")
	}
	if res.calls != 0 {
		t.Errorf("research calls = %d, want 0", res.calls)
	}
}

func TestEnhanceTopicResearchFailureKeepsArtifactClean(t *testing.T) {
	topicDir := writeTopic(t, t.TempDir(), "golang", "### Goals\n\nShip it.\n")
	gen := &mockGenerator{response: pipelineTasks}
	res := &mockResearcher{err: &poll.Error{InteractionID: "int-9", Reason: poll.ReasonTimeout}}
	rec := &mockRecorder{}
	e := newTestEngine(gen, res, rec)

	var buf bytes.Buffer
	_, err := e.EnhanceTopic(context.Background(), topicDir, "golang", &buf)
	if err == nil {
		t.Fatal("EnhanceTopic() error = nil, want timeout")
	}
	if !poll.IsTimeout(err) {
		t.Errorf("IsTimeout(%v) = false, want true", err)
	}

	// Nothing written, so a rerun starts from scratch.
	if _, statErr := os.Stat(filepath.Join(topicDir, topics.ResearchFile)); !os.IsNotExist(statErr) {
		t.Error("research artifact written despite failure")
	}

	if len(rec.runs) != 1 {
		t.Fatalf("recorded runs = %d, want 1", len(rec.runs))
	}
	run := rec.runs[0]
	if run.Status != history.StatusTimeout {
		t.Errorf("run.Status = %q, want %q", run.Status, history.StatusTimeout)
	}
	if run.InteractionID != "int-9" {
		t.Errorf("run.InteractionID = %q", run.InteractionID)
	}
}

func TestEnhanceTopicMissingDebrief(t *testing.T) {
	topicDir := filepath.Join(t.TempDir(), "bare")
	if err := os.MkdirAll(topicDir, 0o755); err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(&mockGenerator{}, &mockResearcher{}, nil)

	var buf bytes.Buffer
	if _, err := e.EnhanceTopic(context.Background(), topicDir, "bare", &buf); err == nil {
		t.Fatal("EnhanceTopic() error = nil, want missing debrief error")
	}
}

func TestEnhanceAll(t *testing.T) {
	dataDir := t.TempDir()
	writeTopic(t, dataDir, "alpha", "### Goals\n\nOpen questions here.\n")
	betaDir := writeTopic(t, dataDir, "beta", "### Goals\n\nAlready researched.\n")
	if err := topics.WriteResearch(betaDir, "## Research Insights\n\ndone earlier\n"); err != nil {
		t.Fatal(err)
	}
	writeTopic(t, dataDir, "gamma", "### Goals\n\nTRIGGER FAILURE notes.\n")

	gen := &mockGenerator{response: pipelineTasks, failOn: "TRIGGER FAILURE"}
	res := &mockResearcher{result: poll.Result{Findings: "findings"}}
	e := newTestEngine(gen, res, &mockRecorder{})

	var buf bytes.Buffer
	summary, err := e.EnhanceAll(context.Background(), dataDir, 2, &buf)
	if err != nil {
		t.Fatalf("EnhanceAll() error = %v", err)
	}

	if summary.Enhanced != 1 || summary.Skipped != 1 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want 1/1/1", summary)
	}
	if summary.Total() != 3 {
		t.Errorf("Total() = %d, want 3", summary.Total())
	}
	if !summary.HasFailures() {
		t.Error("HasFailures() = false, want true")
	}
	if !strings.Contains(buf.String(), "failed  gamma") {
		t.Errorf("output missing failure line:\n%s", buf.String())
	}
}

func TestResearchConnections(t *testing.T) {
	dataDir := t.TempDir()
	writeTopic(t, dataDir, "alpha", "### Goals\n\nCache invalidation woes.\n")
	writeTopic(t, dataDir, "beta", "### Goals\n\nBuild caching tricks.\n")

	gen := &mockGenerator{
		response: `{"tasks":[
			{"query":"bridge caching strategies","context":"both topics fight stale data","priority":9},
			{"query":"minor link","context":"weak connection","priority":5}
		]}`,
	}
	res := &mockResearcher{result: poll.Result{Findings: "shared invalidation pattern", InteractionID: "int-3"}}
	rec := &mockRecorder{}
	e := newTestEngine(gen, res, rec)

	var buf bytes.Buffer
	results, err := e.ResearchConnections(context.Background(), dataDir, &buf)
	if err != nil {
		t.Fatalf("ResearchConnections() error = %v", err)
	}

	// Only the task at or above the cross-topic bar gets researched.
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if res.calls != 1 {
		t.Errorf("research calls = %d, want 1", res.calls)
	}
	if !strings.Contains(res.queries[0], "bridge caching strategies") {
		t.Error("researched query missing the high-priority task")
	}

	out := buf.String()
	if !strings.Contains(out, "found 2 cross-pollination opportunities") {
		t.Errorf("output missing opportunity count:\n%s", out)
	}

	if len(rec.runs) != 1 {
		t.Fatalf("recorded runs = %d, want 1", len(rec.runs))
	}
	run := rec.runs[0]
	if run.Kind != history.KindCrossTopic {
		t.Errorf("run.Kind = %q", run.Kind)
	}
	if run.Query != "bridge caching strategies" {
		t.Errorf("run.Query = %q", run.Query)
	}
	if run.Status != history.StatusCompleted {
		t.Errorf("run.Status = %q", run.Status)
	}
}

func TestResearchConnectionsSingleTopic(t *testing.T) {
	dataDir := t.TempDir()
	writeTopic(t, dataDir, "solo", "### Goals\n\nOnly topic.\n")

	gen := &mockGenerator{response: `{"tasks":[]}`}
	e := newTestEngine(gen, &mockResearcher{}, nil)

	var buf bytes.Buffer
	results, err := e.ResearchConnections(context.Background(), dataDir, &buf)
	if err != nil {
		t.Fatalf("ResearchConnections() error = %v", err)
	}
	if results != nil {
		t.Errorf("results = %v, want nil", results)
	}
	if gen.calls != 0 {
		t.Errorf("model calls = %d, want 0", gen.calls)
	}
	if !strings.Contains(buf.String(), "no cross-pollination opportunities found") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestResearchConnectionsPartialFailure(t *testing.T) {
	dataDir := t.TempDir()
	writeTopic(t, dataDir, "alpha", "### Goals\n\nFirst.\n")
	writeTopic(t, dataDir, "beta", "### Goals\n\nSecond.\n")

	gen := &mockGenerator{
		response: `{"tasks":[
			{"query":"unreachable backend question","context":"c","priority":9},
			{"query":"working question","context":"c","priority":8}
		]}`,
	}
	res := &mockResearcher{result: poll.Result{Findings: "answer"}, failOn: "unreachable backend question"}
	rec := &mockRecorder{}
	e := newTestEngine(gen, res, rec)

	var buf bytes.Buffer
	results, err := e.ResearchConnections(context.Background(), dataDir, &buf)
	if err != nil {
		t.Fatalf("ResearchConnections() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1 surviving result", len(results))
	}
	if !strings.Contains(buf.String(), "failed  unreachable backend question") {
		t.Errorf("output missing failure line:\n%s", buf.String())
	}

	if len(rec.runs) != 2 {
		t.Fatalf("recorded runs = %d, want 2", len(rec.runs))
	}
	if rec.runs[0].Status != history.StatusFailed {
		t.Errorf("first run status = %q, want %q", rec.runs[0].Status, history.StatusFailed)
	}
	if rec.runs[1].Status != history.StatusCompleted {
		t.Errorf("second run status = %q, want %q", rec.runs[1].Status, history.StatusCompleted)
	}
}

func TestFormatInsights(t *testing.T) {
	results := []types.ResearchResult{{
		Task: types.ResearchTask{
			Type:     types.TaskGapFilling,
			Query:    "How to fix error X?",
			Context:  "User hit this twice",
			Priority: 8,
		},
		Findings:   "Solution: Do Y and Z",
		Confidence: 9,
		Sources:    []string{"Documentation"},
	}}

	out := FormatInsights(results)
	for _, want := range []string{
		"## Research Insights",
		"### **Gap Filling** How to fix error X?",
		"**Context:** User hit this twice",
		"Solution: Do Y and Z",
		"**Sources:**\n- Documentation",
		"*Confidence: 9/10 | Priority: 8/10*",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !HasInsights(out) {
		t.Error("HasInsights() = false on rendered output")
	}
}

func TestHasInsights(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"marker present", "preamble\n\n## Research Insights\n\nbody", true},
		{"debrief stub", "# Debrief\n", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		if got := HasInsights(tt.content); got != tt.want {
			t.Errorf("%s: HasInsights() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

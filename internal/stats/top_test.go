package stats

import "testing"

func TestTopTopics(t *testing.T) {
	topics := []TopicStat{
		{Topic: "b", Seconds: 300},
		{Topic: "a", Seconds: 300},
		{Topic: "c", Seconds: 900},
	}
	top := TopTopics(topics, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(top))
	}
	if top[0].Topic != "c" || top[1].Topic != "a" {
		t.Fatalf("unexpected order: %v", top)
	}
	if topics[0].Topic != "b" {
		t.Fatalf("input was reordered")
	}
	if TopTopics(topics, 0) != nil {
		t.Fatalf("expected nil for n=0")
	}
}

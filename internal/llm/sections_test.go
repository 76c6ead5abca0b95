package llm

import "testing"

func TestRegistryOrderAndKinds(t *testing.T) {
	sections := Registry()
	if len(sections) != 15 {
		t.Fatalf("expected 15 sections, got %d", len(sections))
	}
	if sections[0].Key != "veriTuru" || sections[len(sections)-1].Key != "sonuc" {
		t.Fatalf("unexpected order: first=%s last=%s", sections[0].Key, sections[len(sections)-1].Key)
	}
	seen := map[string]bool{}
	lists := 0
	for _, s := range sections {
		if seen[s.Key] {
			t.Fatalf("duplicate key %s", s.Key)
		}
		seen[s.Key] = true
		if s.Label == "" || s.Instruction == "" {
			t.Fatalf("section %s missing label or instruction", s.Key)
		}
		if s.Kind == SectionList {
			lists++
		}
	}
	if lists != 3 {
		t.Fatalf("expected 3 list sections, got %d", lists)
	}
}

func TestRegistryReturnsCopy(t *testing.T) {
	sections := Registry()
	sections[0].Key = "mutated"
	if Registry()[0].Key != "veriTuru" {
		t.Fatalf("registry must not be mutable through the returned slice")
	}
}

func TestIsChartType(t *testing.T) {
	for _, typ := range []string{"bar", "line", "pie", "doughnut", "radar", "scatter"} {
		if !IsChartType(typ) {
			t.Fatalf("%s should be accepted", typ)
		}
	}
	for _, typ := range []string{"", "Bar", "bubble", "polarArea"} {
		if IsChartType(typ) {
			t.Fatalf("%q should be rejected", typ)
		}
	}
}

func TestLookupSection(t *testing.T) {
	sec, ok := LookupSection("ongoruler")
	if !ok || sec.Kind != SectionList {
		t.Fatalf("expected list section ongoruler, got %+v %v", sec, ok)
	}
	if _, ok := LookupSection("unknownSection"); ok {
		t.Fatalf("unknown key must not resolve")
	}
}

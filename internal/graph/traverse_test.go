package graph

import (
	"testing"

	"github.com/openkin/arbor/internal/store"
)

func TestAncestorsBasic(t *testing.T) {
	ctx := threeGenerations()

	anc := ctx.Ancestors("c1", false)
	for _, want := range []string{"p1", "p2", "g1", "g2"} {
		if !anc[want] {
			t.Errorf("expected %s in ancestors of c1", want)
		}
	}
	if anc["c1"] {
		t.Error("member must not be its own ancestor")
	}
	if anc["u1"] || anc["k1"] {
		t.Error("uncle/cousin leaked into ancestors")
	}
}

func TestAncestorsIncludeSpouses(t *testing.T) {
	// p2 married into the family; p2's own parent should appear only with
	// includeSpouses.
	ctx := NewContext(
		members("g1", "p1", "p2", "pin", "c1"),
		[]store.ParentChild{
			pc("r1", "g1", "p1"),
			pc("r2", "pin", "p2"),
			pc("r3", "p1", "c1"),
		},
		[]store.Marriage{marriage("m1", "p1", "p2")},
	)

	without := ctx.Ancestors("c1", false)
	if without["p2"] || without["pin"] {
		t.Error("spouse line present without includeSpouses")
	}

	with := ctx.Ancestors("c1", true)
	for _, want := range []string{"p1", "g1", "p2", "pin"} {
		if !with[want] {
			t.Errorf("expected %s in ancestors with spouses", want)
		}
	}
}

func TestDescendantsBasic(t *testing.T) {
	ctx := threeGenerations()

	desc := ctx.Descendants("g1", false)
	for _, want := range []string{"p1", "u1", "c1", "c2", "k1"} {
		if !desc[want] {
			t.Errorf("expected %s in descendants of g1", want)
		}
	}
	if desc["g1"] {
		t.Error("member must not be its own descendant")
	}
}

func TestDescendantsIncludeSpouses(t *testing.T) {
	ctx := threeGenerations()

	without := ctx.Descendants("g1", false)
	if without["p2"] {
		t.Error("child-in-law present without includeSpouses")
	}

	with := ctx.Descendants("g1", true)
	if !with["p2"] {
		t.Error("expected child-in-law p2 with includeSpouses")
	}
}

func TestDescendantsIncludeStepChildren(t *testing.T) {
	// b's child from a previous relationship is seeded into a's view
	// through the marriage.
	ctx := NewContext(
		members("a", "b", "sc"),
		[]store.ParentChild{pc("r1", "b", "sc")},
		[]store.Marriage{marriage("m1", "a", "b")},
	)

	desc := ctx.Descendants("a", false)
	if !desc["sc"] {
		t.Error("expected spouse's child in descendants")
	}
}

func TestTraversalSurvivesCycles(t *testing.T) {
	// Deliberately corrupt data: a is its own grandparent.
	ctx := NewContext(
		members("a", "b"),
		[]store.ParentChild{pc("r1", "a", "b"), pc("r2", "b", "a")},
		nil,
	)

	anc := ctx.Ancestors("a", false)
	if anc["a"] {
		t.Error("cycle pulled member into its own ancestors")
	}
	desc := ctx.Descendants("a", true)
	if desc["a"] {
		t.Error("cycle pulled member into its own descendants")
	}
}

func TestParentChildMembership(t *testing.T) {
	ctx := threeGenerations()
	for _, r := range ctx.Relationships {
		if !ctx.Ancestors(r.ChildID, false)[r.ParentID] {
			t.Errorf("%s not in ancestors of %s", r.ParentID, r.ChildID)
		}
		if !ctx.Descendants(r.ParentID, false)[r.ChildID] {
			t.Errorf("%s not in descendants of %s", r.ChildID, r.ParentID)
		}
	}
}

func TestSiblingClassification(t *testing.T) {
	// f1=f2 have full siblings a,b; f1 alone has half-sibling h;
	// s is connected to a only through a step row to f1.
	ctx := NewContext(
		members("f1", "f2", "f3", "a", "b", "h", "s"),
		[]store.ParentChild{
			pc("r1", "f1", "a"),
			pc("r2", "f2", "a"),
			pc("r3", "f1", "b"),
			pc("r4", "f2", "b"),
			pc("r5", "f1", "h"),
			pc("r6", "f3", "h"),
			pcTyped("r7", "f1", "s", "step"),
		},
		nil,
	)

	siblings := ctx.Siblings("a")
	got := make(map[string]SiblingType)
	for _, s := range siblings {
		got[s.MemberID] = s.Type
	}

	if got["b"] != SiblingFull {
		t.Errorf("b = %q, want full", got["b"])
	}
	if got["h"] != SiblingHalf {
		t.Errorf("h = %q, want half", got["h"])
	}
	if got["s"] != SiblingStep {
		t.Errorf("s = %q, want step", got["s"])
	}
}

func TestSiblingsEmptyForOnlyChild(t *testing.T) {
	// A and B married with one shared child C: C has no siblings.
	ctx := NewContext(
		members("A", "B", "C"),
		[]store.ParentChild{pc("r1", "A", "C"), pc("r2", "B", "C")},
		[]store.Marriage{marriage("m1", "A", "B")},
	)

	if got := ctx.Siblings("C"); len(got) != 0 {
		t.Errorf("Siblings(C) = %v, want empty", got)
	}
}

func TestFocusFilterAncestors(t *testing.T) {
	ctx := threeGenerations()

	result := ctx.FocusFilter(FocusAncestors, "c1")

	keep := make(map[string]bool)
	for _, m := range result.Members {
		keep[m.ID] = true
	}
	for _, want := range []string{"c1", "p1", "p2", "g1", "g2"} {
		if !keep[want] {
			t.Errorf("expected %s in ancestor focus", want)
		}
	}
	if keep["k1"] {
		t.Error("cousin leaked into ancestor focus")
	}

	for _, r := range result.Relationships {
		if !keep[r.ParentID] || !keep[r.ChildID] {
			t.Errorf("relationship %s has endpoint outside the set", r.ID)
		}
	}
	for _, m := range result.Marriages {
		if !keep[m.Spouse1ID] || !keep[m.Spouse2ID] {
			t.Errorf("marriage %s has endpoint outside the set", m.ID)
		}
	}
}

func TestFocusFilterAlwaysKeepsFocusAndSpouse(t *testing.T) {
	ctx := threeGenerations()

	// g1 has no ancestors; the view still contains g1 and spouse g2.
	result := ctx.FocusFilter(FocusAncestors, "g1")
	keep := make(map[string]bool)
	for _, m := range result.Members {
		keep[m.ID] = true
	}
	if !keep["g1"] || !keep["g2"] {
		t.Errorf("focus member or spouse missing: %v", keep)
	}
}

func TestFocusFilterAll(t *testing.T) {
	ctx := threeGenerations()
	result := ctx.FocusFilter(FocusAll, "c1")
	if len(result.Members) != len(ctx.Members) {
		t.Errorf("members = %d, want %d", len(result.Members), len(ctx.Members))
	}
}

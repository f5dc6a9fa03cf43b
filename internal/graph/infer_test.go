package graph

import (
	"testing"

	"github.com/openkin/arbor/internal/store"
)

func TestInferParentChild(t *testing.T) {
	ctx := threeGenerations()

	r := ctx.Infer("p1", "c1", 0)
	if r.Kind != KindParent {
		t.Errorf("kind = %q, want parent", r.Kind)
	}

	back := ctx.Infer("c1", "p1", 0)
	if back.Kind != KindChild {
		t.Errorf("mirrored kind = %q, want child", back.Kind)
	}
}

func TestInferGrandparent(t *testing.T) {
	ctx := threeGenerations()

	r := ctx.Infer("g1", "c1", 0)
	if r.Kind != KindGrandparent {
		t.Errorf("kind = %q, want grandparent", r.Kind)
	}
	if r.Label != "grandparent" {
		t.Errorf("label = %q", r.Label)
	}
}

func TestInferSiblingAndSpouse(t *testing.T) {
	ctx := threeGenerations()

	if r := ctx.Infer("c1", "c2", 0); r.Kind != KindSibling {
		t.Errorf("kind = %q, want sibling", r.Kind)
	}
	if r := ctx.Infer("p1", "p2", 0); r.Kind != KindSpouse {
		t.Errorf("kind = %q, want spouse", r.Kind)
	}
	if r := ctx.Infer("c1", "c1", 0); r.Kind != KindSelf {
		t.Errorf("kind = %q, want self", r.Kind)
	}
}

func TestInferAuntUncle(t *testing.T) {
	ctx := threeGenerations()

	r := ctx.Infer("u1", "c1", 0)
	if r.Kind != KindAuntUncle {
		t.Errorf("kind = %q, want aunt-uncle", r.Kind)
	}
	back := ctx.Infer("c1", "u1", 0)
	if back.Kind != KindNieceNephew {
		t.Errorf("mirrored kind = %q, want niece-nephew", back.Kind)
	}
}

func TestInferFirstCousins(t *testing.T) {
	ctx := threeGenerations()

	r := ctx.Infer("c1", "k1", 0)
	if r.Kind != KindCousin {
		t.Fatalf("kind = %q, want cousin", r.Kind)
	}
	if r.Degree != 1 || r.Removal != 0 {
		t.Errorf("degree/removal = %d/%d, want 1/0", r.Degree, r.Removal)
	}
	if r.Label != "first cousin" {
		t.Errorf("label = %q", r.Label)
	}
}

func TestInferCousinRemoval(t *testing.T) {
	// k1's child is c1's first cousin once removed.
	base := threeGenerations()
	ms := make([]store.Member, 0, len(base.Members)+1)
	for _, id := range sortedMemberIDs(base) {
		ms = append(ms, base.Members[id])
	}
	ms = append(ms, member("kk1"))
	rels := append(append([]store.ParentChild(nil), base.Relationships...), pc("r10", "k1", "kk1"))
	ctx := NewContext(ms, rels, base.Marriages)

	r := ctx.Infer("c1", "kk1", 0)
	if r.Kind != KindCousin || r.Degree != 1 || r.Removal != 1 {
		t.Fatalf("got %q %d/%d, want cousin 1/1", r.Kind, r.Degree, r.Removal)
	}
	if r.Label != "first cousin once removed" {
		t.Errorf("label = %q", r.Label)
	}

	back := ctx.Infer("kk1", "c1", 0)
	if back.Degree != r.Degree || back.Removal != r.Removal {
		t.Errorf("symmetry broken: %d/%d vs %d/%d", r.Degree, r.Removal, back.Degree, back.Removal)
	}
}

func TestInferSymmetry(t *testing.T) {
	ctx := threeGenerations()
	pairs := [][2]string{
		{"c1", "k1"}, {"c1", "c2"}, {"g1", "k1"}, {"p1", "k1"},
	}
	for _, p := range pairs {
		a := ctx.Infer(p[0], p[1], 0)
		b := ctx.Infer(p[1], p[0], 0)
		if a.Degree != b.Degree || a.Removal != b.Removal {
			t.Errorf("infer(%s,%s) = %d/%d but infer(%s,%s) = %d/%d",
				p[0], p[1], a.Degree, a.Removal, p[1], p[0], b.Degree, b.Removal)
		}
	}
}

func TestInferInLaw(t *testing.T) {
	// sp married c1; sp has no blood link to the family.
	base := threeGenerations()
	ms := make([]store.Member, 0, len(base.Members)+1)
	for _, id := range sortedMemberIDs(base) {
		ms = append(ms, base.Members[id])
	}
	ms = append(ms, member("sp"))
	mars := append(append([]store.Marriage(nil), base.Marriages...), marriage("m3", "c1", "sp"))
	ctx := NewContext(ms, base.Relationships, mars)

	r := ctx.Infer("sp", "c2", 0)
	if !r.InLaw {
		t.Fatalf("expected in-law relation, got %+v", r)
	}
	if r.Kind != KindSibling {
		t.Errorf("kind = %q, want sibling (by marriage)", r.Kind)
	}
}

func TestInferNoRelationship(t *testing.T) {
	ctx := NewContext(members("a", "b"), nil, nil)

	r := ctx.Infer("a", "b", 0)
	if r.Kind != KindNone {
		t.Errorf("kind = %q, want none", r.Kind)
	}
	if r.Label != "no relationship found" {
		t.Errorf("label = %q", r.Label)
	}
}

func TestInferRespectsGenerationBound(t *testing.T) {
	// Chain: top -> m1 -> m2 -> a and top -> n1 -> n2 -> b. Common ancestor
	// is 3 generations up; a bound of 2 must not find it.
	ctx := NewContext(
		members("top", "m1", "m2", "a", "n1", "n2", "b"),
		[]store.ParentChild{
			pc("r1", "top", "m1"), pc("r2", "m1", "m2"), pc("r3", "m2", "a"),
			pc("r4", "top", "n1"), pc("r5", "n1", "n2"), pc("r6", "n2", "b"),
		},
		nil,
	)

	if r := ctx.Infer("a", "b", 2); r.Kind != KindNone {
		t.Errorf("bound 2: kind = %q, want none", r.Kind)
	}
	if r := ctx.Infer("a", "b", 3); r.Kind != KindCousin {
		t.Errorf("bound 3: kind = %q, want cousin", r.Kind)
	}
}

func TestInferTieBreakDeterministic(t *testing.T) {
	// Double cousins: both parents of x and y are siblings, so x and y share
	// two grandparent pairs at equal distance. The smallest ancestor id must
	// be reported every time.
	ctx := NewContext(
		members("a1", "a2", "b1", "b2", "pa", "pb", "qa", "qb", "x", "y"),
		[]store.ParentChild{
			pc("r1", "a1", "pa"), pc("r2", "a2", "pa"),
			pc("r3", "a1", "pb"), pc("r4", "a2", "pb"),
			pc("r5", "b1", "qa"), pc("r6", "b2", "qa"),
			pc("r7", "b1", "qb"), pc("r8", "b2", "qb"),
			pc("r9", "pa", "x"), pc("r10", "qa", "x"),
			pc("r11", "pb", "y"), pc("r12", "qb", "y"),
		},
		nil,
	)

	first := ctx.Infer("x", "y", 0)
	for i := 0; i < 10; i++ {
		again := ctx.Infer("x", "y", 0)
		if again.CommonAncestorID != first.CommonAncestorID {
			t.Fatalf("common ancestor flapped: %q vs %q", first.CommonAncestorID, again.CommonAncestorID)
		}
	}
	if first.CommonAncestorID != "a1" {
		t.Errorf("common ancestor = %q, want smallest id a1", first.CommonAncestorID)
	}
}

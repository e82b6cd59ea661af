package graph

import (
	"testing"
)

func TestBuilderKeepsGraphSimple(t *testing.T) {
	b := NewBuilder()
	b.AddEdge(1, 2)
	b.AddEdge(2, 1) // duplicate in the other direction
	b.AddEdge(1, 2)
	b.AddEdge(3, 3) // self loop becomes an isolated node
	b.AddNode(4)
	b.AddNode(4)
	g := b.Build()

	if g.NumNodes() != 4 {
		t.Errorf("expected 4 nodes, got %d", g.NumNodes())
	}
	if g.NumEdges() != 1 {
		t.Errorf("expected 1 edge, got %d", g.NumEdges())
	}
	if g.Degree(3) != 0 || !g.Has(3) {
		t.Errorf("expected node 3 to be isolated, degree %d", g.Degree(3))
	}
	if g.Has(5) {
		t.Error("node 5 should not exist")
	}
}

func TestNodesAndNeighborsSorted(t *testing.T) {
	g := FromEdges([][2]int64{{5, 1}, {5, 3}, {5, 2}, {9, 1}})

	want := []int64{1, 2, 3, 5, 9}
	nodes := g.Nodes()
	if len(nodes) != len(want) {
		t.Fatalf("expected %v, got %v", want, nodes)
	}
	for i := range want {
		if nodes[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, nodes)
		}
	}

	nb := g.Neighbors(5)
	if len(nb) != 3 || nb[0] != 1 || nb[1] != 2 || nb[2] != 3 {
		t.Errorf("unexpected neighbours of 5: %v", nb)
	}
}

func TestDistances(t *testing.T) {
	// 1-2-3-4 path plus a separate 7-8 edge
	g := FromEdges([][2]int64{{1, 2}, {2, 3}, {3, 4}, {7, 8}})

	d := g.Distances(1, []int64{1, 3, 4, 8, 100})
	if d[1] != 0 || d[3] != 2 || d[4] != 3 {
		t.Errorf("unexpected distances: %v", d)
	}
	if _, ok := d[8]; ok {
		t.Error("node 8 is in another component and must be absent")
	}
	if _, ok := d[100]; ok {
		t.Error("unknown node must be absent")
	}

	if len(g.Distances(100, []int64{1})) != 0 {
		t.Error("distances from an unknown node must be empty")
	}
}

func TestComponents(t *testing.T) {
	b := NewBuilder()
	b.AddEdge(4, 5)
	b.AddEdge(1, 2)
	b.AddEdge(2, 3)
	b.AddNode(10)
	g := b.Build()

	comps := g.Components()
	if len(comps) != 3 {
		t.Fatalf("expected 3 components, got %d", len(comps))
	}
	if len(comps[0]) != 3 || comps[0][0] != 1 {
		t.Errorf("unexpected first component %v", comps[0])
	}
	if len(comps[2]) != 1 || comps[2][0] != 10 {
		t.Errorf("unexpected last component %v", comps[2])
	}
}

func TestNilGraphIsEmpty(t *testing.T) {
	var g *Graph
	if g.Has(1) || g.NumNodes() != 0 || g.NumEdges() != 0 || g.Degree(1) != 0 {
		t.Error("nil graph must behave like an empty graph")
	}
	if g.Nodes() != nil || g.Neighbors(1) != nil || g.Components() != nil {
		t.Error("nil graph must return no nodes")
	}
	if g.Gonum().Nodes().Len() != 0 {
		t.Error("nil graph gonum view must be empty")
	}
}

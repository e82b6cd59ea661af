package graph

import (
	"sort"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

// Graph is an immutable simple undirected graph with int64 node ids.
// The gonum graph holds the structure; sorted node and adjacency indexes are
// built once so that the hot loops of the simulator never touch iterators.
type Graph struct {
	g         *simple.UndirectedGraph
	nodes     []int64           // ascending
	adjacency map[int64][]int64 // node -> ascending neighbours
	numEdges  int
}

// Builder accumulates nodes and edges before freezing them into a Graph
type Builder struct {
	g *simple.UndirectedGraph
}

// NewBuilder creates an empty graph builder
func NewBuilder() *Builder {
	return &Builder{g: simple.NewUndirectedGraph()}
}

// AddNode adds an isolated node. Adding an existing node is a no-op.
func (b *Builder) AddNode(id int64) {
	if b.g.Node(id) == nil {
		b.g.AddNode(simple.Node(id))
	}
}

// AddEdge adds the undirected edge u-v. Self loops and repeated edges are
// ignored so the result stays a simple graph.
func (b *Builder) AddEdge(u, v int64) {
	if u == v {
		b.AddNode(u)
		return
	}
	if b.g.HasEdgeBetween(u, v) {
		return
	}
	b.g.SetEdge(simple.Edge{F: simple.Node(u), T: simple.Node(v)})
}

// Build freezes the builder. The builder must not be used afterwards.
func (b *Builder) Build() *Graph {
	g := &Graph{
		g:         b.g,
		adjacency: make(map[int64][]int64, b.g.Nodes().Len()),
	}

	nodes := b.g.Nodes()
	for nodes.Next() {
		id := nodes.Node().ID()
		g.nodes = append(g.nodes, id)

		var neighbors []int64
		from := b.g.From(id)
		for from.Next() {
			neighbors = append(neighbors, from.Node().ID())
		}
		sort.Slice(neighbors, func(i, j int) bool { return neighbors[i] < neighbors[j] })
		g.adjacency[id] = neighbors
		g.numEdges += len(neighbors)
	}
	sort.Slice(g.nodes, func(i, j int) bool { return g.nodes[i] < g.nodes[j] })
	g.numEdges /= 2

	b.g = nil
	return g
}

// FromEdges is a convenience constructor used by loaders and tests
func FromEdges(edges [][2]int64) *Graph {
	b := NewBuilder()
	for _, e := range edges {
		b.AddEdge(e[0], e[1])
	}
	return b.Build()
}

// Has reports whether id is a node of the graph
func (g *Graph) Has(id int64) bool {
	if g == nil {
		return false
	}
	_, ok := g.adjacency[id]
	return ok
}

// Nodes returns all node ids in ascending order. The slice is shared and
// must not be modified.
func (g *Graph) Nodes() []int64 {
	if g == nil {
		return nil
	}
	return g.nodes
}

// Neighbors returns the ascending neighbour ids of a node. The slice is
// shared and must not be modified.
func (g *Graph) Neighbors(id int64) []int64 {
	if g == nil {
		return nil
	}
	return g.adjacency[id]
}

// Degree returns the number of neighbours of a node, 0 if absent
func (g *Graph) Degree(id int64) int {
	return len(g.Neighbors(id))
}

func (g *Graph) NumNodes() int {
	if g == nil {
		return 0
	}
	return len(g.nodes)
}

func (g *Graph) NumEdges() int {
	if g == nil {
		return 0
	}
	return g.numEdges
}

// Gonum exposes the underlying graph for gonum algorithms. Callers must
// treat it as read-only.
func (g *Graph) Gonum() gonum.Undirected {
	if g == nil {
		return simple.NewUndirectedGraph()
	}
	return g.g
}

// Distances runs a breadth-first search from `from` and returns the hop
// distance to every target reachable from it. Unreachable targets are
// absent from the result. The walk stops as soon as all targets are seen.
func (g *Graph) Distances(from int64, targets []int64) map[int64]int {
	distances := make(map[int64]int, len(targets))
	if !g.Has(from) {
		return distances
	}

	pending := make(map[int64]bool, len(targets))
	for _, t := range targets {
		if t == from {
			distances[t] = 0
			continue
		}
		if g.Has(t) {
			pending[t] = true
		}
	}
	if len(pending) == 0 {
		return distances
	}

	var bf traverse.BreadthFirst
	bf.Walk(g.g, simple.Node(from), func(n gonum.Node, depth int) bool {
		id := n.ID()
		if pending[id] {
			distances[id] = depth
			delete(pending, id)
		}
		return len(pending) == 0
	})

	return distances
}

// Components returns the connected components, each sorted ascending, in
// order of their smallest node id
func (g *Graph) Components() [][]int64 {
	if g.NumNodes() == 0 {
		return nil
	}

	raw := topo.ConnectedComponents(g.g)
	components := make([][]int64, 0, len(raw))
	for _, c := range raw {
		ids := make([]int64, len(c))
		for i, n := range c {
			ids[i] = n.ID()
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		components = append(components, ids)
	}
	sort.Slice(components, func(i, j int) bool { return components[i][0] < components[j][0] })

	return components
}

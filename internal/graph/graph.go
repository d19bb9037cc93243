// Package graph builds the parse-time dependency graph between models,
// macros and external sources from static analysis results. It supports
// cycle detection and topological ordering.
package graph

import (
	"fmt"
	"sort"
)

// NodeKind identifies what a graph node represents.
type NodeKind int

// NodeKind constants.
const (
	KindModel NodeKind = iota
	KindMacro
	KindSource
)

func (k NodeKind) String() string {
	switch k {
	case KindModel:
		return "model"
	case KindMacro:
		return "macro"
	case KindSource:
		return "source"
	default:
		return "unknown"
	}
}

// Node represents a node in the dependency graph.
type Node struct {
	// ID is the unique identifier (model path, package.macro, or
	// source.table).
	ID   string
	Kind NodeKind
}

// Graph is a directed graph of dependency edges. An edge from parent to
// child means the child depends on the parent.
type Graph struct {
	nodes   map[string]*Node
	edges   map[string][]string // parent -> children (dependents)
	parents map[string][]string // child -> parents (dependencies)
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:   make(map[string]*Node),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// AddNode adds a node to the graph. Adding an existing ID again is a no-op.
func (g *Graph) AddNode(id string, kind NodeKind) {
	if _, exists := g.nodes[id]; !exists {
		g.nodes[id] = &Node{ID: id, Kind: kind}
		g.edges[id] = []string{}
		g.parents[id] = []string{}
	}
}

// AddEdge adds a dependency edge: child depends on parent.
func (g *Graph) AddEdge(parentID, childID string) error {
	if _, exists := g.nodes[parentID]; !exists {
		return fmt.Errorf("parent node %q does not exist", parentID)
	}
	if _, exists := g.nodes[childID]; !exists {
		return fmt.Errorf("child node %q does not exist", childID)
	}
	if parentID == childID {
		return fmt.Errorf("self-loop detected: %s", parentID)
	}

	if !contains(g.edges[parentID], childID) {
		g.edges[parentID] = append(g.edges[parentID], childID)
	}
	if !contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}
	return nil
}

// GetNode returns a node by ID.
func (g *Graph) GetNode(id string) (*Node, bool) {
	node, exists := g.nodes[id]
	return node, exists
}

// Dependencies returns the parents (dependencies) of a node.
func (g *Graph) Dependencies(id string) []string {
	return g.parents[id]
}

// Dependents returns the children (dependents) of a node.
func (g *Graph) Dependents(id string) []string {
	return g.edges[id]
}

// Nodes returns all nodes sorted by ID for deterministic output.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID < nodes[j].ID
	})
	return nodes
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, children := range g.edges {
		count += len(children)
	}
	return count
}

// HasCycle reports whether the graph contains a cycle, with the cycle path.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := make(map[string]string)

	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		recStack[id] = true

		for _, childID := range g.edges[id] {
			if !visited[childID] {
				path[childID] = id
				if dfs(childID) {
					return true
				}
			} else if recStack[childID] {
				// Found cycle, reconstruct path
				cyclePath = []string{childID}
				for curr := id; curr != childID; curr = path[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{childID}, cyclePath...)
				return true
			}
		}

		recStack[id] = false
		return false
	}

	for id := range g.nodes {
		if !visited[id] {
			if dfs(id) {
				return true, cyclePath
			}
		}
	}

	return false, nil
}

// TopologicalSort returns nodes in dependency order (dependencies before
// dependents). Returns an error if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]*Node, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("cycle detected: %v", cyclePath)
	}

	visited := make(map[string]bool)
	var result []*Node

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, parentID := range g.parents[id] {
			visit(parentID)
		}
		result = append(result, g.nodes[id])
	}

	// Sort node IDs first for deterministic order
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		visit(id)
	}

	return result, nil
}

func contains(slice []string, s string) bool {
	for _, item := range slice {
		if item == s {
			return true
		}
	}
	return false
}

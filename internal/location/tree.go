// Package location builds the storage-place hierarchy and reconciles expected
// contents against what is actually on the shelf.
package location

import (
	"sort"

	"github.com/example/ems-custody/internal/entity"
	"github.com/example/ems-custody/internal/infrastructure/store"
)

// Node is a location with its resolved children.
type Node struct {
	Location *entity.Location `json:"location"`
	Children []*Node          `json:"children,omitempty"`
}

// BuildTree arranges the active locations of a service into a forest ordered
// by name. A location whose parent is missing from the active set becomes a
// root rather than being dropped.
func BuildTree(entityStore store.EntityStore, serviceID string) []*Node {
	nodes := make(map[string]*Node)
	for _, raw := range entityStore.GetAll(store.CollLocations) {
		loc, ok := raw.(*entity.Location)
		if !ok || loc.ServiceID != serviceID || !loc.IsActive {
			continue
		}
		nodes[loc.ID] = &Node{Location: loc}
	}

	var roots []*Node
	for _, node := range nodes {
		parent, ok := nodes[node.Location.ParentID]
		if node.Location.ParentID == "" || !ok {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	sortNodes(roots)
	for _, node := range nodes {
		sortNodes(node.Children)
	}
	return roots
}

// Descendants returns the ids of locationID and every location beneath it.
func Descendants(entityStore store.EntityStore, serviceID, locationID string) []string {
	children := make(map[string][]string)
	for _, raw := range entityStore.GetAll(store.CollLocations) {
		loc, ok := raw.(*entity.Location)
		if !ok || loc.ServiceID != serviceID || !loc.IsActive {
			continue
		}
		if loc.ParentID != "" {
			children[loc.ParentID] = append(children[loc.ParentID], loc.ID)
		}
	}

	ids := []string{locationID}
	for i := 0; i < len(ids); i++ {
		ids = append(ids, children[ids[i]]...)
	}
	return ids
}

func sortNodes(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Location.Name < nodes[j].Location.Name
	})
}

// ABOUTME: Rank command handling: registers or replaces anonymous rank groups at root scope.
// ABOUTME: Existing nodes join a group as refs; nodes that do not exist yet are created inside it.
package interp

import (
	"fmt"
	"slices"

	"github.com/2389-research/graphdelta/dot"
	"github.com/2389-research/graphdelta/dsl"
)

var rankValues = map[string]bool{"same": true, "min": true, "max": true}

func setRank(g *dot.Graph, c dsl.RankSet) error {
	if !rankValues[c.Rank] {
		return fmt.Errorf("%w: %q", ErrInvalidRank, c.Rank)
	}
	members := dedupe(c.Members)
	if len(members) == 0 {
		return ErrEmptyRank
	}
	if slices.Contains(members, "") {
		return fmt.Errorf("%w: rank member", dot.ErrEmptyID)
	}

	group := matchingGroup(g, c.Rank, members)
	if group == nil {
		group = dot.NewSubgraph(g.NextAnonymousID(), dot.NewAttrs("rank", c.Rank))
		group.Anonymous = true
		if err := g.Upsert(group); err != nil {
			return err
		}
		if _, err := createMissing(g, group, members); err != nil {
			return err
		}
	} else if err := replaceMembers(g, group, members); err != nil {
		return err
	}

	for _, id := range members {
		if n := g.FindNode(id); n.Parent != group.ID {
			g.AddRef(group.ID, id)
		}
	}
	return nil
}

// createMissing creates the members that do not exist yet inside group and
// reports whether it created any.
func createMissing(g *dot.Graph, group *dot.Chunk, members []string) (bool, error) {
	created := false
	for _, id := range members {
		if g.FindNode(id) != nil {
			continue
		}
		n := dot.NewNode(id, nil)
		n.Parent = group.ID
		if err := g.Upsert(n); err != nil {
			return created, err
		}
		created = true
	}
	return created, nil
}

// matchingGroup finds a root rank group with the same rank that already
// lists one of members.
func matchingGroup(g *dot.Graph, rank string, members []string) *dot.Chunk {
	for _, rg := range g.RankGroups() {
		if rg.Parent != "" || rg.Attrs.Value("rank") != rank {
			continue
		}
		for _, id := range g.MembersOf(rg.ID) {
			if slices.Contains(members, id) {
				return rg
			}
		}
	}
	return nil
}

// replaceMembers rewrites group for the new member list. Owned nodes no
// longer listed move to root and missing members are created inside it. The
// group then moves to the end of the chunk order when it gained members or a
// listed node it will reference is declared after it, so the block stays
// contiguous and after its members.
func replaceMembers(g *dot.Graph, group *dot.Chunk, members []string) error {
	listed := make(map[string]bool, len(members))
	for _, id := range members {
		listed[id] = true
	}

	for _, n := range g.ChildrenOf(group.ID) {
		if n.Kind == dot.KindNode && !listed[n.ID] {
			if err := g.Move(n.Key(), ""); err != nil {
				return err
			}
		}
	}
	group.Refs = nil

	created, err := createMissing(g, group, members)
	if err != nil {
		return err
	}
	if created || refersForward(g, group, members) {
		return g.Move(group.Key(), "")
	}
	return nil
}

// refersForward reports whether a listed node owned elsewhere is declared after group.
func refersForward(g *dot.Graph, group *dot.Chunk, members []string) bool {
	pos := make(map[*dot.Chunk]int)
	for i, c := range g.Chunks() {
		pos[c] = i
	}
	for _, id := range members {
		if n := g.FindNode(id); n.Parent != group.ID && pos[n] > pos[group] {
			return true
		}
	}
	return false
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

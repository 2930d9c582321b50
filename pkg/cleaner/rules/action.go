package rules

import (
	"github.com/jmylchreest/feedclean/internal/logger"
	"github.com/jmylchreest/feedclean/pkg/cleaner"
	"github.com/jmylchreest/feedclean/pkg/cleaner/dom"
)

// execute performs action on nodes, which must be in document order.
// It returns the number of subtrees detached; a match already detached by an
// earlier match of the same action is not counted again.
func execute(nodes dom.NodeSet, action Action, stats *cleaner.Stats) int {
	if nodes.Len() == 0 {
		return 0
	}

	r := remover{stats: stats}
	switch action {
	case ActionKeepOnly:
		// Collect every match's siblings before touching the tree so that
		// removal order cannot change what counts as a sibling.
		var targets dom.NodeSet
		nodes.Each(func(n dom.Node) {
			targets = targets.Union(n.Siblings())
		})
		r.removeAll(targets.Exclude(nodes))

	case ActionRemove:
		r.removeAll(nodes)

	case ActionRemoveAfter:
		nodes.Each(func(n dom.Node) {
			if !n.Attached() {
				return
			}
			r.removeAll(n.NextAll())
			r.remove(n)
		})

	case ActionRemoveParentAfter:
		nodes.Each(func(n dom.Node) {
			if !n.Attached() {
				return
			}
			parent, ok := n.Parent()
			if !ok {
				return
			}
			if parent.IsRoot() {
				// The fragment root cannot go; cut from the match instead.
				logger.Debug("remove-parent-after at fragment root, removing from match",
					"tag", n.Tag(),
					"parent", parent.Tag())
				r.removeAll(n.NextAll())
				r.remove(n)
				return
			}
			r.removeAll(parent.NextAll())
			r.remove(parent)
		})

	case actionUnknown:
		// Compile rejects unknown actions.
	}
	return r.count
}

type remover struct {
	stats *cleaner.Stats
	count int
}

func (r *remover) remove(n dom.Node) {
	if !n.Attached() {
		return
	}
	if r.stats != nil {
		r.stats.RecordRemoval(n.Tag())
	}
	n.Remove()
	r.count++
}

func (r *remover) removeAll(nodes dom.NodeSet) {
	nodes.Each(r.remove)
}

package digest

import (
	"sort"
	"strings"

	"github.com/temirov/ingest/internal/types"
)

const (
	treeHeading         = "Directory structure:"
	branchConnector     = "├── "
	lastBranchConnector = "└── "
	continuationIndent  = "│   "
	lastContinuation    = "    "
	directorySuffix     = "/"
	symlinkArrow        = " -> "
)

// treeNode is one line of the directory diagram.
type treeNode struct {
	name       string
	kind       types.EntryKind
	linkTarget string
	skipped    bool
	children   []*treeNode
}

func (node *treeNode) isDirectory() bool {
	return node.kind == types.EntryKindDirectory
}

func (node *treeNode) label() string {
	label := node.name
	if node.isDirectory() {
		label += directorySuffix
	}
	if node.linkTarget != "" {
		label += symlinkArrow + node.linkTarget
	}
	return label
}

// pruneEmptyDirectories removes directories without visible descendants and
// returns whether node itself should stay.
func (node *treeNode) pruneEmptyDirectories() bool {
	kept := node.children[:0]
	for _, child := range node.children {
		if child.pruneEmptyDirectories() {
			kept = append(kept, child)
		}
	}
	node.children = kept
	if !node.isDirectory() || node.skipped {
		return true
	}
	return len(node.children) > 0
}

// countDirectories counts traversed directories below node. Skipped
// directories stay in the diagram but are not counted.
func (node *treeNode) countDirectories() int {
	count := 0
	for _, child := range node.children {
		if child.isDirectory() && !child.skipped {
			count++
		}
		count += child.countDirectories()
	}
	return count
}

// renderTree draws root and its descendants with box-drawing connectors.
func renderTree(root *treeNode) string {
	var builder strings.Builder
	builder.WriteString(treeHeading)
	builder.WriteString("\n")
	builder.WriteString(lastBranchConnector)
	builder.WriteString(root.label())
	builder.WriteString("\n")
	renderChildren(&builder, root, lastContinuation)
	return builder.String()
}

func renderChildren(builder *strings.Builder, parent *treeNode, prefix string) {
	for index, child := range parent.children {
		isLast := index == len(parent.children)-1
		connector, nextPrefix := branchConnector, prefix+continuationIndent
		if isLast {
			connector, nextPrefix = lastBranchConnector, prefix+lastContinuation
		}
		builder.WriteString(prefix)
		builder.WriteString(connector)
		builder.WriteString(child.label())
		builder.WriteString("\n")
		renderChildren(builder, child, nextPrefix)
	}
}

// sortSkipReasons returns the keys of counts in ascending order.
func sortSkipReasons(counts map[types.SkipReason]int) []types.SkipReason {
	reasons := make([]types.SkipReason, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, reason)
	}
	sort.Slice(reasons, func(left, right int) bool { return reasons[left] < reasons[right] })
	return reasons
}

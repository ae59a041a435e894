package vfs

import (
	"context"
	"strings"

	"rolodex/internal/store"
)

const DefaultTreeDepth = 4

// Tree draws path and its descendants down to maxDepth directory levels.
// A maxDepth below one uses DefaultTreeDepth.
func Tree(ctx context.Context, r store.Reader, path string, maxDepth int) (string, error) {
	if maxDepth < 1 {
		maxDepth = DefaultTreeDepth
	}
	node, err := Resolve(ctx, r, path)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if node.Path == "/" {
		b.WriteString(".")
	} else if node.IsDir {
		b.WriteString(node.Name + "/")
	} else {
		b.WriteString(node.Name)
	}
	if err := drawTree(ctx, r, node, "", 1, maxDepth, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

func drawTree(ctx context.Context, r store.Reader, node *Node, prefix string, depth, maxDepth int, b *strings.Builder) error {
	if !node.IsDir || depth > maxDepth {
		return nil
	}
	for i, child := range node.Children {
		last := i == len(node.Children)-1
		connector, extension := "├── ", "│   "
		if last {
			connector, extension = "└── ", "    "
		}
		b.WriteString("\n" + prefix + connector + child.String())

		if !child.IsDir {
			continue
		}
		sub, err := Resolve(ctx, r, strings.TrimSuffix(node.Path, "/")+"/"+child.Name)
		if err != nil {
			return err
		}
		if err := drawTree(ctx, r, sub, prefix+extension, depth+1, maxDepth, b); err != nil {
			return err
		}
	}
	return nil
}

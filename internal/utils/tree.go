package utils

import (
	"sort"
	"strings"
)

// PathsToTree converts a list of slash-separated file paths into a visual tree
// rooted at rootLabel (omitted when empty).
// Example:
// repo
// ├── main.go
// └── utils
//     └── helper.go
func PathsToTree(rootLabel string, paths []string) string {
	if len(paths) == 0 {
		return strings.TrimSpace(rootLabel)
	}

	root := make(map[string]any)
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		current := root
		for _, part := range strings.Split(p, "/") {
			if part == "" || part == "." {
				continue
			}
			if _, ok := current[part]; !ok {
				current[part] = make(map[string]any)
			}
			current = current[part].(map[string]any)
		}
	}

	var sb strings.Builder
	if label := strings.TrimSpace(rootLabel); label != "" {
		sb.WriteString(label)
		sb.WriteString("\n")
	}
	renderTree(&sb, root, "")
	return strings.TrimSpace(sb.String())
}

func renderTree(sb *strings.Builder, node map[string]any, prefix string) {
	keys := make([]string, 0, len(node))
	for k := range node {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i, k := range keys {
		isLast := i == len(keys)-1
		sb.WriteString(prefix)
		if isLast {
			sb.WriteString("└── ")
		} else {
			sb.WriteString("├── ")
		}
		sb.WriteString(k)
		sb.WriteString("\n")

		children := node[k].(map[string]any)
		if len(children) > 0 {
			next := prefix + "│   "
			if isLast {
				next = prefix + "    "
			}
			renderTree(sb, children, next)
		}
	}
}

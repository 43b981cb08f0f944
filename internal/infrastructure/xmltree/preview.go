package xmltree

import "strings"

// PreviewResult summarizes a parsed document for building a field mapping.
// With a product path it carries Tags, Sample and TotalProducts; without one
// it carries Structure and Raw.
type PreviewResult struct {
	Tags          []string `json:"tags,omitempty"`
	Sample        *Value   `json:"sample,omitempty"`
	TotalProducts int      `json:"totalProducts"`
	Structure     []string `json:"structure,omitempty"`
	Raw           *Value   `json:"raw,omitempty"`
}

// Preview inspects root at path. A sequence yields its first item as the
// sample and its length as the total. Any other node is a single record.
// A path that selects nothing yields no tags and a total of zero.
func Preview(root Value, path string) PreviewResult {
	path = strings.Trim(path, ".")
	if path == "" {
		raw := root
		return PreviewResult{Structure: root.Keys(), Raw: &raw}
	}

	node, ok := root.Lookup(path)
	if !ok {
		return PreviewResult{Tags: []string{}}
	}
	if items, isSeq := node.Items(); isSeq {
		if len(items) == 0 {
			return PreviewResult{Tags: []string{}}
		}
		sample := items[0]
		return PreviewResult{Tags: sample.LeafKeys(), Sample: &sample, TotalProducts: len(items)}
	}
	return PreviewResult{Tags: node.LeafKeys(), Sample: &node, TotalProducts: 1}
}

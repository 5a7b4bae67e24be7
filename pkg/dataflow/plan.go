package dataflow

import (
	"fmt"
	"strings"
)

// Plan is a complete dataflow plan, identified for traceability and rooted
// at its sink node.
type Plan struct {
	PlanID string
	Sink   Node
}

// StructureText renders the plan as an indented node tree, sink first.
// The rendering is lazy: nothing is formatted until explain output asks
// for it.
func (p *Plan) StructureText() string {
	var b strings.Builder
	b.WriteString("<DataflowPlan>\n")
	writeNode(&b, p.Sink, 1)
	b.WriteString("</DataflowPlan>")
	return b.String()
}

func writeNode(b *strings.Builder, n Node, depth int) {
	pad := strings.Repeat("    ", depth)

	attrs := fmt.Sprintf(" node_id='%s'", n.NodeID())
	for _, prop := range n.Properties() {
		attrs += fmt.Sprintf(" %s='%s'", prop.Key, prop.Value)
	}

	inputs := n.Inputs()
	if len(inputs) == 0 {
		b.WriteString(pad + "<" + n.DisplayName() + attrs + " />\n")
		return
	}

	b.WriteString(pad + "<" + n.DisplayName() + attrs + ">\n")
	for _, input := range inputs {
		writeNode(b, input, depth+1)
	}
	b.WriteString(pad + "</" + n.DisplayName() + ">\n")
}

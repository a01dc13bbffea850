// Package explain renders compiled plans as text.
package explain

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/dshills/quantaplan/internal/sql/planner"
)

// Section headers.
const (
	LogicalHeader  = "logical_plan"
	PhysicalHeader = "physical_plan"
)

// Format renders the logical and physical plans as two sections. Each node
// takes one line prefixed by its two-digit ordinal and two dashes per level
// of depth.
func Format(logical planner.LogicalPlan, physical planner.PhysicalPlan) string {
	var b strings.Builder
	writeSection(&b, LogicalHeader, logical)
	writeSection(&b, PhysicalHeader, physical)
	return b.String()
}

// FormatLogical renders only the logical_plan section.
func FormatLogical(plan planner.LogicalPlan) string {
	var b strings.Builder
	writeSection(&b, LogicalHeader, plan)
	return b.String()
}

// FormatPhysical renders only the physical_plan section.
func FormatPhysical(plan planner.PhysicalPlan) string {
	var b strings.Builder
	writeSection(&b, PhysicalHeader, plan)
	return b.String()
}

func writeSection(b *strings.Builder, header string, plan planner.Plan) {
	b.WriteString(header)
	b.WriteByte('\n')
	for _, line := range Lines(plan) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
}

// Lines returns the numbered lines of plan in depth-first order.
func Lines(plan planner.Plan) []string {
	var lines []string
	planner.Walk(plan, func(p planner.Plan, depth int) bool {
		lines = append(lines, fmt.Sprintf("%02d)%s%s", len(lines)+1, strings.Repeat("--", depth), p.String()))
		return true
	})
	return lines
}

// Fingerprint hashes the shape and operator descriptions of plans. Equal
// plans hash equally across processes.
func Fingerprint(plans ...planner.Plan) uint64 {
	d := xxhash.New()
	for _, plan := range plans {
		planner.Walk(plan, func(p planner.Plan, depth int) bool {
			_, _ = fmt.Fprintf(d, "%d|%s\n", depth, p.String())
			return true
		})
		_, _ = d.WriteString("\x00")
	}
	return d.Sum64()
}

// FormatFingerprint renders a fingerprint as fixed-width hex.
func FormatFingerprint(fp uint64) string {
	return fmt.Sprintf("%016x", fp)
}

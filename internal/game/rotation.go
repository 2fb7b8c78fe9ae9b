package game

import (
	"slices"

	"github.com/sketchchain/backend/internal"
)

// NextDrawer selects who draws after the current drawer. It scans forward
// from the position after the current drawer, in rotation order, and picks
// the first player who has not drawn yet; once everyone has drawn it falls
// back to the plain next player. The index is recomputed from the current
// address so the result stays well-defined after the roster has shrunk:
// an already-departed current drawer simply starts the scan at the front.
func NextDrawer(order []*internal.Player, current string, drawn map[string]struct{}) string {
	n := len(order)
	if n == 0 {
		return ""
	}
	cur := slices.IndexFunc(order, func(p *internal.Player) bool {
		return p.Address == current
	})
	start := (cur + 1) % n // cur == -1 scans from index 0
	for i := 0; i < n; i++ {
		candidate := order[(start+i)%n].Address
		if _, ok := drawn[candidate]; !ok {
			return candidate
		}
	}
	return order[start].Address
}

package tactical

import "github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"

// ClassifyRigState runs the fixed priority ladder (drilling first, idle
// last) described in spec.md §3. Grounded on the prior implementation's
// classify_rig_state, extended with tripping detection gated on block
// position per the Open Question in DESIGN.md: a packet with no
// reported block position can never classify as TrippingIn/TrippingOut
// and falls through to the rest of the ladder instead. Tripping is
// checked before Connection, since a trip's hook load routinely sits
// in Connection's (50, 200) band while the block is moving; direction
// is decided by hook_load > 150 with no floor, matching
// classify_rig_state's resolution.
func ClassifyRigState(p types.WitsPacket) types.RigState {
	switch {
	case p.RPM > 20 && p.WOB > 5 && p.ROP > 0:
		return types.RigDrilling
	case p.RPM > 20 && p.WOB > 2:
		return types.RigReaming
	case p.RPM > 0 && p.WOB < 5:
		return types.RigCirculating
	case p.HasBlockPosition && p.BlockPosition > 0 && p.RPM < 5:
		if p.HookLoad > 150 {
			return types.RigTrippingOut
		}
		return types.RigTrippingIn
	case p.RPM < 5 && p.HookLoad > 50 && p.HookLoad < 200:
		return types.RigConnection
	default:
		return types.RigIdle
	}
}

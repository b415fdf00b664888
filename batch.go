package wgpurenderer

import (
	"sort"

	"github.com/FairlyBet/wgpurenderer/immediate"
	"github.com/FairlyBet/wgpurenderer/pool"
)

// maxCachedBindGroupSlots is how many bind-group slots track their last
// bound id during emission. Slots at or beyond this index are rebound
// on every call.
const maxCachedBindGroupSlots = 3

// SortDrawCalls orders calls for minimal state switching: by pipeline
// id first, then by the bind-group id sequence compared
// lexicographically (a shorter sequence that matches a longer one's
// prefix sorts first). The sort is in place; the relative order of
// calls with fully equal keys is unspecified.
func SortDrawCalls(calls []DrawCall) {
	sort.Slice(calls, func(i, j int) bool {
		return drawCallLess(&calls[i], &calls[j])
	})
}

func drawCallLess(a, b *DrawCall) bool {
	ap, bp := a.Pipeline.ID(), b.Pipeline.ID()
	if ap != bp {
		return ap < bp
	}
	n := min(len(a.BindGroups), len(b.BindGroups))
	for i := 0; i < n; i++ {
		ag, bg := a.BindGroups[i].ID(), b.BindGroups[i].ID()
		if ag != bg {
			return ag < bg
		}
	}
	return len(a.BindGroups) < len(b.BindGroups)
}

// ExecuteOrderedDrawCalls sorts calls and replays them through rec,
// eliding redundant state changes:
//
//   - the pipeline is rebound only when it changes from the previous
//     call; a pipeline switch invalidates all cached bind-group slots
//   - a bind group is rebound only when its slot held a different id
//     (the first maxCachedBindGroupSlots slots are tracked)
//   - vertex and index buffers are always rebound
//
// Calls that name an immediate block resolve it in imm at emission
// time; blocks that are gone by then are skipped without failing the
// pass. Exactly one draw is emitted per call, indexed when the call
// carries an index buffer.
//
// The sort mutates calls. An empty slice is a no-op.
func ExecuteOrderedDrawCalls(rec Recorder, calls []DrawCall, imm *immediate.Manager) {
	if len(calls) == 0 {
		return
	}
	SortDrawCalls(calls)

	var (
		current    pool.ID
		bound      bool
		cachedIDs  [maxCachedBindGroupSlots]pool.ID
		cacheValid [maxCachedBindGroupSlots]bool
	)
	for i := range calls {
		call := &calls[i]

		id := call.Pipeline.ID()
		if !bound || id != current {
			rec.BindPipeline(call.Pipeline.Value())
			current, bound = id, true
			for s := range cacheValid {
				cacheValid[s] = false
			}
		}

		for slot, g := range call.BindGroups {
			gid := g.ID()
			if slot < maxCachedBindGroupSlots {
				if cacheValid[slot] && cachedIDs[slot] == gid {
					continue
				}
				cachedIDs[slot], cacheValid[slot] = gid, true
			}
			rec.BindGroup(slot, g.Value())
		}

		for slot, vb := range call.VertexBuffers {
			rec.BindVertexBuffer(slot, vb.Buffer.Value(), vb.Offset)
		}

		if call.Immediates != nil {
			if data, ok := lookupImmediates(imm, call.Immediates); ok {
				rec.SetImmediates(data)
			} else {
				Logger().Debug("skipping unresolved immediate block",
					"id", call.Immediates.ID())
			}
		}

		instances := call.InstanceCount
		if instances == 0 {
			instances = 1
		}
		if call.IndexBuffer != nil {
			rec.BindIndexBuffer(call.IndexBuffer.Buffer.Value(),
				call.IndexBuffer.Format, call.IndexBuffer.Offset)
			rec.DrawIndexed(call.Count, instances)
		} else {
			rec.Draw(call.Count, instances)
		}
	}
}

func lookupImmediates(imm *immediate.Manager, im *Immediate) ([]byte, bool) {
	if imm == nil {
		return nil, false
	}
	return imm.Get(im.ID())
}

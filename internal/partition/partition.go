// Package partition maintains a partition of the integers 0..n-1 into
// blocks and refines it against arbitrary subsets. Each refinement costs
// time proportional to the size of the subset.
package partition

// Split records a block that was cut by Refine: Inside is a new block
// holding the members that were in the refining subset, Outside is the
// old block id, now holding the rest.
type Split struct {
	Inside, Outside int
}

// Refinement is a partition of 0..n-1.
type Refinement struct {
	blocks map[int][]int
	owner  []int
	next   int
}

// New returns a refinement with all of 0..n-1 in block 0.
func New(n int) *Refinement {
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	return &Refinement{
		blocks: map[int][]int{0: all},
		owner:  make([]int, n),
		next:   1,
	}
}

// Block returns the members of block id.
func (p *Refinement) Block(id int) []int { return p.blocks[id] }

// Owner returns the id of the block holding x.
func (p *Refinement) Owner(x int) int { return p.owner[x] }

// Len returns the number of blocks.
func (p *Refinement) Len() int { return len(p.blocks) }

// IDs returns the block ids in creation order.
func (p *Refinement) IDs() []int {
	ids := make([]int, 0, len(p.blocks))
	for id := 0; id < p.next; id++ {
		if _, ok := p.blocks[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Refine splits every block A into A∩S and A\S, returning one Split per
// block that actually changed. Duplicates in s are ignored.
func (p *Refinement) Refine(s []int) []Split {
	hit := map[int]map[int]struct{}{}
	var order []int
	for _, x := range s {
		id := p.owner[x]
		h, ok := hit[id]
		if !ok {
			h = map[int]struct{}{}
			hit[id] = h
			order = append(order, id)
		}
		h[x] = struct{}{}
	}

	var out []Split
	for _, id := range order {
		h := hit[id]
		a := p.blocks[id]
		if len(h) == len(a) {
			continue
		}
		inside := make([]int, 0, len(h))
		outside := a[:0]
		for _, x := range a {
			if _, ok := h[x]; ok {
				inside = append(inside, x)
			} else {
				outside = append(outside, x)
			}
		}
		nid := p.next
		p.next++
		p.blocks[nid] = inside
		p.blocks[id] = outside
		for _, x := range inside {
			p.owner[x] = nid
		}
		out = append(out, Split{Inside: nid, Outside: id})
	}
	return out
}

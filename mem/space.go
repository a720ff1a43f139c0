package mem

import (
	"sync"

	"github.com/sarchlab/memspace/hooking"
)

// AllocFailed is the address returned by Malloc when no free block can
// satisfy the request. Allocation failure is an expected outcome, not an
// error; callers may run Defrag and retry.
const AllocFailed = -1

// Hook positions of a Space. Hooks are invoked after the operation has
// completed, with an OpInfo as the context item.
var (
	HookPosMallocDone = &hooking.HookPos{Name: "Malloc Done"}
	HookPosFreeDone   = &hooking.HookPos{Name: "Free Done"}
	HookPosDefragDone = &hooking.HookPos{Name: "Defrag Done"}
)

// An OpInfo describes one completed allocator operation.
type OpInfo struct {
	Op         string
	BlockID    string
	Address    int
	Length     int
	FreeCount  int
	AllocCount int
}

// A Space simulates a managed memory space of a fixed capacity. It owns two
// block lists, one for the free blocks and one for the allocated blocks.
// Blocks move between the two lists but are never copied anywhere else.
//
// All operations hold one coarse lock per Space, so a Space can be observed
// by the monitoring server while a simulation drives it.
type Space struct {
	hooking.HookableBase

	name      string
	capacity  int
	free      *BlockList
	allocated *BlockList

	mu sync.Mutex
}

// NewSpace creates a Space managing addresses [0, capacity). The free list
// starts with a single block covering the whole space. A non-positive
// capacity is rejected with ErrBadCapacity.
func NewSpace(name string, capacity int) (*Space, error) {
	if capacity <= 0 {
		return nil, ErrBadCapacity
	}

	s := &Space{
		name:      name,
		capacity:  capacity,
		free:      NewBlockList(),
		allocated: NewBlockList(),
	}
	s.free.Append(NewBlock(0, capacity))

	return s, nil
}

// Name returns the name of the space.
func (s *Space) Name() string {
	return s.name
}

// Capacity returns the total number of words managed by the space.
func (s *Space) Capacity() int {
	return s.capacity
}

// Malloc allocates a block of the requested length in words and returns its
// base address, or AllocFailed when no free block is large enough. The scan
// is first-fit in free-list order, which after many operations is insertion
// order, not address order. A failed request has no side effects.
//
// A non-positive length is a rejected request, reported through the same
// sentinel.
//
// Malloc never defragments; Defrag is a separately triggered operation.
func (s *Space) Malloc(length int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if length <= 0 {
		return AllocFailed
	}

	freeBlock := s.free.FirstMatching(func(b *Block) bool {
		return b.Length >= length
	})
	if freeBlock == nil {
		return AllocFailed
	}

	allocatedBlock := NewBlock(freeBlock.BaseAddr, length)
	s.allocated.Append(allocatedBlock)

	freeBlock.BaseAddr += length
	freeBlock.Length -= length
	if freeBlock.Length == 0 {
		// Zero-length blocks must not linger in the free list.
		_ = s.free.RemoveRef(freeBlock)
	}

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosMallocDone,
		Item: OpInfo{
			Op:         "malloc",
			BlockID:    allocatedBlock.ID,
			Address:    allocatedBlock.BaseAddr,
			Length:     allocatedBlock.Length,
			FreeCount:  s.free.Size(),
			AllocCount: s.allocated.Size(),
		},
	})

	return allocatedBlock.BaseAddr
}

// Free moves the first allocated block whose base address equals address
// back to the end of the free list, without merging it with its neighbors.
// Freeing while nothing is allocated fails with ErrNoAllocatedBlocks.
// Freeing an address that is not allocated is silently ignored once the
// allocated list is non-empty.
func (s *Space) Free(address int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.allocated.Size() == 0 {
		return ErrNoAllocatedBlocks
	}

	block := s.allocated.FirstMatching(func(b *Block) bool {
		return b.BaseAddr == address
	})
	if block == nil {
		return nil
	}

	_ = s.allocated.RemoveRef(block)
	s.free.Append(block)

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosFreeDone,
		Item: OpInfo{
			Op:         "free",
			BlockID:    block.ID,
			Address:    block.BaseAddr,
			Length:     block.Length,
			FreeCount:  s.free.Size(),
			AllocCount: s.allocated.Size(),
		},
	})

	return nil
}

// Defrag merges adjacent free blocks until no two blocks in the free list
// are mutually adjacent. Every merge restarts the scan from the beginning,
// since the extended block may now be adjacent to a block that was already
// visited. The repeated rescans make the worst case quadratic, which is
// accepted for correctness.
func (s *Space) Defrag() {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := true
	for merged {
		merged = false

		for b := range s.free.All() {
			candidateAddr := b.BaseAddr + b.Length
			absorbed := s.free.FirstMatching(func(c *Block) bool {
				return c.BaseAddr == candidateAddr
			})

			if absorbed != nil {
				b.Length += absorbed.Length
				_ = s.free.RemoveRef(absorbed)
				merged = true
				break
			}
		}
	}

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosDefragDone,
		Item: OpInfo{
			Op:         "defrag",
			Address:    AllocFailed,
			FreeCount:  s.free.Size(),
			AllocCount: s.allocated.Size(),
		},
	})
}

// FreeBlocks returns a snapshot of the free list, in list order.
func (s *Space) FreeBlocks() []Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	return snapshot(s.free)
}

// AllocatedBlocks returns a snapshot of the allocated list, in list order.
func (s *Space) AllocatedBlocks() []Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	return snapshot(s.allocated)
}

// String renders the free list and then the allocated list, one per line,
// for diagnostics.
func (s *Space) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.free.String() + "\n" + s.allocated.String()
}

func snapshot(l *BlockList) []Block {
	blocks := make([]Block, 0, l.Size())
	for b := range l.All() {
		blocks = append(blocks, *b)
	}

	return blocks
}

package mem_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/memspace/hooking"
	"github.com/sarchlab/memspace/mem"
)

type collectingHook struct {
	ops []mem.OpInfo
}

func (h *collectingHook) Func(ctx hooking.HookCtx) {
	h.ops = append(h.ops, ctx.Item.(mem.OpInfo))
}

func sumLengths(blocks []mem.Block) int {
	total := 0
	for _, b := range blocks {
		total += b.Length
	}

	return total
}

var _ = Describe("Space", func() {
	var s *mem.Space

	BeforeEach(func() {
		var err error
		s, err = mem.NewSpace("Space", 100)
		Expect(err).ToNot(HaveOccurred())
	})

	It("should reject a non-positive capacity", func() {
		_, err := mem.NewSpace("Bad", 0)
		Expect(err).To(MatchError(mem.ErrBadCapacity))

		_, err = mem.NewSpace("Bad", -5)
		Expect(err).To(MatchError(mem.ErrBadCapacity))
	})

	It("should start with one free block covering the whole space", func() {
		free := s.FreeBlocks()
		Expect(free).To(HaveLen(1))
		Expect(free[0].BaseAddr).To(Equal(0))
		Expect(free[0].Length).To(Equal(100))
		Expect(s.AllocatedBlocks()).To(BeEmpty())
	})

	It("should allocate from the base of the first fitting block", func() {
		Expect(s.Malloc(30)).To(Equal(0))
		Expect(s.Malloc(20)).To(Equal(30))

		free := s.FreeBlocks()
		Expect(free).To(HaveLen(1))
		Expect(free[0].BaseAddr).To(Equal(50))
		Expect(free[0].Length).To(Equal(50))
	})

	It("should return the failure sentinel without side effects when no "+
		"block fits", func() {
		Expect(s.Malloc(40)).To(Equal(0))

		before := s.String()
		Expect(s.Malloc(61)).To(Equal(mem.AllocFailed))
		Expect(s.String()).To(Equal(before))
	})

	It("should reject a non-positive length as a failed request", func() {
		before := s.String()
		Expect(s.Malloc(0)).To(Equal(mem.AllocFailed))
		Expect(s.Malloc(-3)).To(Equal(mem.AllocFailed))
		Expect(s.String()).To(Equal(before))
	})

	It("should fail to free when nothing is allocated", func() {
		Expect(s.Free(0)).To(MatchError(mem.ErrNoAllocatedBlocks))
	})

	It("should silently ignore freeing an address that is not allocated",
		func() {
			s.Malloc(10)

			Expect(s.Free(55)).To(Succeed())
			Expect(s.AllocatedBlocks()).To(HaveLen(1))
		})

	It("should re-add a freed block at the end of the free list without "+
		"merging", func() {
		Expect(s.Malloc(10)).To(Equal(0))
		Expect(s.Free(0)).To(Succeed())

		free := s.FreeBlocks()
		Expect(free).To(HaveLen(2))
		Expect(free[0].BaseAddr).To(Equal(10))
		Expect(free[0].Length).To(Equal(90))
		Expect(free[1].BaseAddr).To(Equal(0))
		Expect(free[1].Length).To(Equal(10))

		s.Defrag()

		free = s.FreeBlocks()
		Expect(free).To(HaveLen(1))
		Expect(free[0].Length).To(Equal(100))
	})

	It("should not merge on malloc failure either", func() {
		Expect(s.Malloc(50)).To(Equal(0))
		Expect(s.Malloc(50)).To(Equal(50))
		Expect(s.Free(0)).To(Succeed())
		Expect(s.Free(50)).To(Succeed())

		// 100 contiguous words exist, but only as two un-merged blocks.
		Expect(s.Malloc(100)).To(Equal(mem.AllocFailed))

		s.Defrag()

		Expect(s.Malloc(100)).To(Equal(0))
	})

	It("should render the free list and then the allocated list", func() {
		s.Malloc(30)

		Expect(s.String()).To(Equal("(30, 70)\n(0, 30)"))
	})

	It("should invoke hooks after completed operations", func() {
		hook := &collectingHook{}
		s.AcceptHook(hook)

		s.Malloc(10)
		s.Free(0)
		s.Defrag()

		Expect(hook.ops).To(HaveLen(3))
		Expect(hook.ops[0].Op).To(Equal("malloc"))
		Expect(hook.ops[0].Address).To(Equal(0))
		Expect(hook.ops[0].Length).To(Equal(10))
		Expect(hook.ops[1].Op).To(Equal("free"))
		Expect(hook.ops[2].Op).To(Equal("defrag"))
		Expect(hook.ops[2].FreeCount).To(Equal(1))
	})

	It("should conserve words and never overlap under random workloads",
		func() {
			r := rand.New(rand.NewSource(1))
			addrs := []int{}

			for range 2000 {
				switch r.Intn(4) {
				case 0, 1:
					addr := s.Malloc(r.Intn(20) + 1)
					if addr != mem.AllocFailed {
						addrs = append(addrs, addr)
					}
				case 2:
					if len(addrs) > 0 {
						i := r.Intn(len(addrs))
						Expect(s.Free(addrs[i])).To(Succeed())
						addrs = append(addrs[:i], addrs[i+1:]...)
					}
				case 3:
					s.Defrag()
				}

				free := s.FreeBlocks()
				allocated := s.AllocatedBlocks()
				Expect(sumLengths(free) + sumLengths(allocated)).
					To(Equal(100))

				used := map[int]bool{}
				for _, b := range append(free, allocated...) {
					Expect(b.Length).To(BeNumerically(">", 0))
					for addr := b.BaseAddr; addr < b.BaseAddr+b.Length; addr++ {
						Expect(used[addr]).To(BeFalse())
						used[addr] = true
					}
				}
			}
		})
})

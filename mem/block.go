package mem

import "fmt"

// A Block is a contiguous range [BaseAddr, BaseAddr+Length) of the simulated
// address space. Blocks are handled by reference. Two blocks with equal
// fields are still distinct entities, so removing a block from a list by
// reference and removing it by value are different operations.
type Block struct {
	ID       string
	BaseAddr int
	Length   int
}

// NewBlock creates a block covering [baseAddr, baseAddr+length). The ID is
// assigned by the package ID generator and plays no role in allocation
// decisions.
func NewBlock(baseAddr, length int) *Block {
	return &Block{
		ID:       GetIDGenerator().Generate(),
		BaseAddr: baseAddr,
		Length:   length,
	}
}

// sameValue reports whether two blocks cover the same range. IDs are ignored.
func (b *Block) sameValue(other *Block) bool {
	return b.BaseAddr == other.BaseAddr && b.Length == other.Length
}

func (b *Block) String() string {
	return fmt.Sprintf("(%d, %d)", b.BaseAddr, b.Length)
}

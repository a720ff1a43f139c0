package mem

import (
	"container/list"
	"iter"
	"strings"
)

// A BlockList is an ordered collection of block references. Insertion order
// defines iteration order; the list never sorts or deduplicates. Every block
// stored has a positive length.
type BlockList struct {
	elements *list.List
}

// NewBlockList creates an empty BlockList.
func NewBlockList() *BlockList {
	return &BlockList{elements: list.New()}
}

// Size returns the number of blocks in the list.
func (l *BlockList) Size() int {
	return l.elements.Len()
}

// InsertAt inserts a block before position index, with index in [0, size].
// Inserting at either end is O(1); inserting in the middle is O(index).
func (l *BlockList) InsertAt(index int, b *Block) error {
	if index < 0 || index > l.elements.Len() {
		return ErrOutOfRange
	}

	switch index {
	case 0:
		l.elements.PushFront(b)
	case l.elements.Len():
		l.elements.PushBack(b)
	default:
		l.elements.InsertBefore(b, l.elementAt(index))
	}

	return nil
}

// Append adds a block at the end of the list.
func (l *BlockList) Append(b *Block) {
	l.elements.PushBack(b)
}

// Prepend adds a block at the beginning of the list.
func (l *BlockList) Prepend(b *Block) {
	l.elements.PushFront(b)
}

// Get returns the block at position index.
func (l *BlockList) Get(index int) (*Block, error) {
	if index < 0 || index >= l.elements.Len() {
		return nil, ErrOutOfRange
	}

	return l.elementAt(index).Value.(*Block), nil
}

// IndexOf returns the position of the first block covering the same range as
// b, or -1 when there is none.
func (l *BlockList) IndexOf(b *Block) int {
	if b == nil {
		return -1
	}

	return l.IndexOfFunc(func(candidate *Block) bool {
		return candidate.sameValue(b)
	})
}

// IndexOfFunc returns the position of the first block satisfying pred, or -1
// when there is none.
func (l *BlockList) IndexOfFunc(pred func(*Block) bool) int {
	index := 0
	for e := l.elements.Front(); e != nil; e = e.Next() {
		if pred(e.Value.(*Block)) {
			return index
		}
		index++
	}

	return -1
}

// RemoveRef removes the first entry that is the very block b, compared by
// identity. A nil handle is an error. A handle that is not in the list is
// silently ignored, so callers that already validated membership do not have
// to handle absence. Compare with RemoveValue, where absence is an error.
func (l *BlockList) RemoveRef(b *Block) error {
	if b == nil {
		return ErrInvalidReference
	}

	for e := l.elements.Front(); e != nil; e = e.Next() {
		if e.Value.(*Block) == b {
			l.elements.Remove(e)
			return nil
		}
	}

	return nil
}

// RemoveAt removes the block at position index.
func (l *BlockList) RemoveAt(index int) error {
	if index < 0 || index >= l.elements.Len() {
		return ErrOutOfRange
	}

	l.elements.Remove(l.elementAt(index))

	return nil
}

// RemoveValue removes the first block covering the same range as b. Unlike
// RemoveRef, a block that is not in the list is an error: the lookup yields
// index -1, which RemoveAt rejects.
func (l *BlockList) RemoveValue(b *Block) error {
	return l.RemoveAt(l.IndexOf(b))
}

// Filter returns a new list holding references to every block satisfying
// pred, in the original relative order.
func (l *BlockList) Filter(pred func(*Block) bool) *BlockList {
	filtered := NewBlockList()
	for b := range l.All() {
		if pred(b) {
			filtered.Append(b)
		}
	}

	return filtered
}

// FirstMatching returns the first block satisfying pred, or nil when there
// is none.
func (l *BlockList) FirstMatching(pred func(*Block) bool) *Block {
	for b := range l.All() {
		if pred(b) {
			return b
		}
	}

	return nil
}

// All returns a front-to-back traversal of the list. Each call starts a
// fresh traversal. Mutating the list while a traversal is in progress is not
// supported.
func (l *BlockList) All() iter.Seq[*Block] {
	return func(yield func(*Block) bool) {
		for e := l.elements.Front(); e != nil; e = e.Next() {
			if !yield(e.Value.(*Block)) {
				return
			}
		}
	}
}

// String renders the blocks in order, space-separated, for diagnostics.
func (l *BlockList) String() string {
	var sb strings.Builder
	for e := l.elements.Front(); e != nil; e = e.Next() {
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(e.Value.(*Block).String())
	}

	return sb.String()
}

func (l *BlockList) elementAt(index int) *list.Element {
	e := l.elements.Front()
	for i := 0; i < index; i++ {
		e = e.Next()
	}

	return e
}

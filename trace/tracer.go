// Package trace provides hooks that can record allocator operations.
package trace

import (
	"log"

	"github.com/sarchlab/memspace/datarecording"
	"github.com/sarchlab/memspace/hooking"
	"github.com/sarchlab/memspace/mem"
)

// TableName is the database table that the DB tracer writes into.
const TableName = "alloc_ops"

// An AllocEntry represents one allocator operation in the database.
type AllocEntry struct {
	Seq        int
	BlockID    string
	Op         string
	Address    int
	Length     int
	FreeCount  int
	AllocCount int
}

// A tracer is a hook that logs every allocator operation through a standard
// logger.
type tracer struct {
	logger *log.Logger
}

// NewTracer creates a tracer that writes one line per operation.
func NewTracer(logger *log.Logger) hooking.Hook {
	return &tracer{logger: logger}
}

// Func logs the completed operation.
func (t *tracer) Func(ctx hooking.HookCtx) {
	op := ctx.Item.(mem.OpInfo)

	t.logger.Printf("%s, addr %d, len %d, free %d, allocated %d\n",
		op.Op, op.Address, op.Length, op.FreeCount, op.AllocCount)
}

// A dbTracer is a hook that records allocator operations through a
// DataRecorder.
type dbTracer struct {
	recorder datarecording.DataRecorder
	seq      int
}

// NewDBTracer creates a tracer that writes one AllocEntry per operation. The
// table is created immediately.
func NewDBTracer(recorder datarecording.DataRecorder) hooking.Hook {
	recorder.CreateTable(TableName, AllocEntry{})

	return &dbTracer{recorder: recorder}
}

// Func records the completed operation.
func (t *dbTracer) Func(ctx hooking.HookCtx) {
	op := ctx.Item.(mem.OpInfo)

	t.seq++
	t.recorder.InsertData(TableName, AllocEntry{
		Seq:        t.seq,
		BlockID:    op.BlockID,
		Op:         op.Op,
		Address:    op.Address,
		Length:     op.Length,
		FreeCount:  op.FreeCount,
		AllocCount: op.AllocCount,
	})
}

// CollectTraces attaches a tracing hook to a memory space.
func CollectTraces(space *mem.Space, hook hooking.Hook) {
	space.AcceptHook(hook)
}

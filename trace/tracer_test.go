package trace_test

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/sarchlab/memspace/mem"
	"github.com/sarchlab/memspace/trace"
)

var _ = Describe("Tracer", func() {
	var s *mem.Space

	BeforeEach(func() {
		var err error
		s, err = mem.NewSpace("Space", 100)
		Expect(err).ToNot(HaveOccurred())
	})

	It("should log one line per operation", func() {
		buf := &bytes.Buffer{}
		logger := log.New(buf, "", 0)
		trace.CollectTraces(s, trace.NewTracer(logger))

		s.Malloc(10)
		s.Free(0)

		Expect(buf.String()).To(Equal(
			"malloc, addr 0, len 10, free 1, allocated 1\n" +
				"free, addr 0, len 10, free 2, allocated 0\n"))
	})

	It("should not log failed requests", func() {
		buf := &bytes.Buffer{}
		logger := log.New(buf, "", 0)
		trace.CollectTraces(s, trace.NewTracer(logger))

		s.Malloc(200)

		Expect(buf.String()).To(BeEmpty())
	})
})

var _ = Describe("DBTracer", func() {
	var (
		mockCtrl *gomock.Controller
		recorder *MockDataRecorder
		s        *mem.Space
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		recorder = NewMockDataRecorder(mockCtrl)

		var err error
		s, err = mem.NewSpace("Space", 100)
		Expect(err).ToNot(HaveOccurred())
	})

	It("should create the table on construction", func() {
		recorder.EXPECT().CreateTable(trace.TableName, trace.AllocEntry{})

		trace.CollectTraces(s, trace.NewDBTracer(recorder))
	})

	It("should record one entry per operation", func() {
		recorder.EXPECT().CreateTable(trace.TableName, trace.AllocEntry{})
		trace.CollectTraces(s, trace.NewDBTracer(recorder))

		var entries []trace.AllocEntry
		recorder.EXPECT().
			InsertData(trace.TableName, gomock.Any()).
			Do(func(_ string, entry any) {
				entries = append(entries, entry.(trace.AllocEntry))
			}).
			Times(3)

		addr := s.Malloc(10)
		s.Free(addr)
		s.Defrag()

		Expect(entries).To(HaveLen(3))
		Expect(entries[0].Seq).To(Equal(1))
		Expect(entries[0].Op).To(Equal("malloc"))
		Expect(entries[0].Address).To(Equal(0))
		Expect(entries[0].Length).To(Equal(10))
		Expect(entries[1].Op).To(Equal("free"))
		Expect(entries[2].Op).To(Equal("defrag"))
		Expect(entries[2].Seq).To(Equal(3))
	})
})

// Package monitoring turns memory spaces into a web server so that their
// state can be inspected and controlled while a simulation runs.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/memspace/mem"
)

// Monitor serves the live state of registered memory spaces over HTTP.
type Monitor struct {
	portNumber int
	url        string

	spacesLock sync.Mutex
	spaces     []*mem.Space
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterSpace registers a memory space to be monitored.
func (m *Monitor) RegisterSpace(s *mem.Space) {
	m.spacesLock.Lock()
	defer m.spacesLock.Unlock()

	m.spaces = append(m.spaces, s)
}

// StartServer starts the monitor as a web server.
func (m *Monitor) StartServer() {
	r := m.router()

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	m.url = fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring memory spaces with %s\n", m.url)

	go func() {
		err = http.Serve(listener, r)
		dieOnErr(err)
	}()
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/spaces", m.listSpaces)
	r.HandleFunc("/api/space/{name}", m.spaceState)
	r.HandleFunc("/api/space/{name}/detail", m.spaceDetail)
	r.HandleFunc("/api/space/{name}/defrag", m.spaceDefrag).
		Methods(http.MethodPost)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// URL returns the address of the server. It is only valid after StartServer
// has been called.
func (m *Monitor) URL() string {
	return m.url
}

// OpenBrowser opens the monitor page in the system browser.
func (m *Monitor) OpenBrowser() {
	err := browser.OpenURL(m.url + "/api/spaces")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open browser: %s\n", err)
	}
}

func (m *Monitor) listSpaces(w http.ResponseWriter, _ *http.Request) {
	m.spacesLock.Lock()
	defer m.spacesLock.Unlock()

	names := make([]string, 0, len(m.spaces))
	for _, s := range m.spaces {
		names = append(names, s.Name())
	}

	writeJSON(w, names)
}

type blockRsp struct {
	ID   string `json:"id"`
	Base int    `json:"base"`
	Len  int    `json:"len"`
}

type spaceRsp struct {
	Name      string     `json:"name"`
	Capacity  int        `json:"capacity"`
	Free      []blockRsp `json:"free"`
	Allocated []blockRsp `json:"allocated"`
}

func blockRsps(blocks []mem.Block) []blockRsp {
	rsps := make([]blockRsp, 0, len(blocks))
	for _, b := range blocks {
		rsps = append(rsps, blockRsp{ID: b.ID, Base: b.BaseAddr, Len: b.Length})
	}

	return rsps
}

func (m *Monitor) spaceState(w http.ResponseWriter, r *http.Request) {
	s := m.findSpaceOr404(w, mux.Vars(r)["name"])
	if s == nil {
		return
	}

	writeJSON(w, spaceRsp{
		Name:      s.Name(),
		Capacity:  s.Capacity(),
		Free:      blockRsps(s.FreeBlocks()),
		Allocated: blockRsps(s.AllocatedBlocks()),
	})
}

func (m *Monitor) spaceDetail(w http.ResponseWriter, r *http.Request) {
	s := m.findSpaceOr404(w, mux.Vars(r)["name"])
	if s == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(s)
	serializer.SetMaxDepth(1)

	err := serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) spaceDefrag(w http.ResponseWriter, r *http.Request) {
	s := m.findSpaceOr404(w, mux.Vars(r)["name"])
	if s == nil {
		return
	}

	s.Defrag()
	w.WriteHeader(http.StatusOK)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memoryInfo, err := proc.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func (m *Monitor) findSpaceOr404(
	w http.ResponseWriter,
	name string,
) *mem.Space {
	m.spacesLock.Lock()
	defer m.spacesLock.Unlock()

	for _, s := range m.spaces {
		if s.Name() == name {
			return s
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Space not found"))
	dieOnErr(err)

	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	dieOnErr(err)

	_, err = w.Write(data)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}

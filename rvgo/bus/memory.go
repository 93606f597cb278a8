package bus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// DefaultMemorySize is the RAM capacity used when none is configured: 128 MiB.
const DefaultMemorySize = 128 << 20

// Pages are the unit of memory snapshots. All-zero pages are never serialized.
const (
	PageAddrSize = 12
	PageSize     = 1 << PageAddrSize
)

var zeroPage [PageSize]byte

// Memory is flat, zero-initialised RAM. Multi-byte values are little-endian:
// byte i of an access occupies bits [8i, 8i+8) of the value.
type Memory struct {
	data []byte
}

var _ Device = (*Memory)(nil)

func NewMemory(size uint64) *Memory {
	return &Memory{data: make([]byte, size)}
}

func (m *Memory) Size() uint64 {
	return uint64(len(m.data))
}

// inRange reports whether [offset, offset+size) lies inside the memory, without overflowing.
func (m *Memory) inRange(offset uint64, size uint64) bool {
	return offset <= m.Size() && size <= m.Size()-offset
}

func (m *Memory) Read(offset uint64, size uint64) (uint64, error) {
	if !validSize(size) {
		return 0, fmt.Errorf("invalid access size %d", size)
	}
	if !m.inRange(offset, size) {
		return 0, fmt.Errorf("memory read out of bounds: offset %x size %d capacity %x", offset, size, m.Size())
	}
	var v uint64
	for i := uint64(0); i < size; i++ {
		v |= uint64(m.data[offset+i]) << (i * 8)
	}
	return v, nil
}

func (m *Memory) Write(offset uint64, size uint64, value uint64) error {
	if !validSize(size) {
		return fmt.Errorf("invalid access size %d", size)
	}
	if !m.inRange(offset, size) {
		return fmt.Errorf("memory write out of bounds: offset %x size %d capacity %x", offset, size, m.Size())
	}
	for i := uint64(0); i < size; i++ {
		m.data[offset+i] = byte(value >> (i * 8))
	}
	return nil
}

// SetRange copies everything r produces into memory starting at offset.
func (m *Memory) SetRange(offset uint64, r io.Reader) error {
	if offset > m.Size() {
		return fmt.Errorf("memory range start %x beyond capacity %x", offset, m.Size())
	}
	for {
		if offset == m.Size() {
			// memory is full: anything left in the reader does not fit
			var extra [1]byte
			if n, _ := io.ReadFull(r, extra[:]); n != 0 {
				return fmt.Errorf("memory range exceeds capacity %x", m.Size())
			}
			return nil
		}
		n, err := r.Read(m.data[offset:])
		offset += uint64(n)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

type memReader struct {
	m     *Memory
	addr  uint64
	count uint64
}

func (r *memReader) Read(dest []byte) (n int, err error) {
	if r.count == 0 {
		return 0, io.EOF
	}
	if r.addr >= r.m.Size() {
		return 0, io.ErrUnexpectedEOF
	}
	end := r.addr + r.count
	if end > r.m.Size() || end < r.addr {
		end = r.m.Size()
	}
	n = copy(dest, r.m.data[r.addr:end])
	r.addr += uint64(n)
	r.count -= uint64(n)
	return n, nil
}

// ReadRange streams count bytes starting at offset.
// Reading past the end of memory fails with io.ErrUnexpectedEOF.
func (m *Memory) ReadRange(offset uint64, count uint64) io.Reader {
	return &memReader{m: m, addr: offset, count: count}
}

// Usage formats the memory capacity for logs.
func (m *Memory) Usage() string {
	total := m.Size()
	const unit = 1024
	if total < unit {
		return fmt.Sprintf("%d B", total)
	}
	div, exp := uint64(unit), 0
	for n := total / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	// KiB, MiB, GiB, TiB, ...
	return fmt.Sprintf("%.1f %ciB", float64(total)/float64(div), "KMGTPE"[exp])
}

// ForEachPage calls fn for every page holding a non-zero byte, in address order.
// The last page is shorter when the capacity is not page aligned.
func (m *Memory) ForEachPage(fn func(pageIndex uint64, data []byte) error) error {
	for start := uint64(0); start < m.Size(); start += PageSize {
		end := start + PageSize
		if end > m.Size() {
			end = m.Size()
		}
		page := m.data[start:end]
		if bytes.Equal(page, zeroPage[:len(page)]) {
			continue
		}
		if err := fn(start>>PageAddrSize, page); err != nil {
			return err
		}
	}
	return nil
}

// PageCount counts the pages holding a non-zero byte.
func (m *Memory) PageCount() int {
	n := 0
	_ = m.ForEachPage(func(uint64, []byte) error {
		n++
		return nil
	})
	return n
}

type pageEntry struct {
	Index uint64        `json:"index"`
	Data  hexutil.Bytes `json:"data"`
}

type memoryJSON struct {
	Size  uint64      `json:"size"`
	Pages []pageEntry `json:"pages"`
}

func (m *Memory) MarshalJSON() ([]byte, error) {
	out := memoryJSON{Size: m.Size(), Pages: []pageEntry{}}
	_ = m.ForEachPage(func(pageIndex uint64, data []byte) error {
		out.Pages = append(out.Pages, pageEntry{Index: pageIndex, Data: data})
		return nil
	})
	return json.Marshal(out)
}

func (m *Memory) UnmarshalJSON(data []byte) error {
	var in memoryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	m.data = make([]byte, in.Size)
	pageCount := in.Size >> PageAddrSize
	if in.Size&(PageSize-1) != 0 {
		pageCount++
	}
	seen := make(map[uint64]struct{}, len(in.Pages))
	for i, p := range in.Pages {
		if _, ok := seen[p.Index]; ok {
			return fmt.Errorf("cannot load duplicate page, entry %d, page index %d", i, p.Index)
		}
		seen[p.Index] = struct{}{}
		// checked before shifting, a large index would wrap to a low offset
		if p.Index >= pageCount {
			return fmt.Errorf("page %d is outside memory of %d pages", p.Index, pageCount)
		}
		if len(p.Data) > PageSize {
			return fmt.Errorf("page %d has %d bytes, more than a page", p.Index, len(p.Data))
		}
		if err := m.SetRange(p.Index<<PageAddrSize, bytes.NewReader(p.Data)); err != nil {
			return fmt.Errorf("failed to load page %d: %w", p.Index, err)
		}
	}
	return nil
}

func validSize(size uint64) bool {
	switch size {
	case 1, 2, 4, 8:
		return true
	default:
		return false
	}
}

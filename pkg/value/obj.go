package value

// ObjType discriminates the heap cell variants of spec.md §3's table.
type ObjType uint8

const (
	TypeString ObjType = iota
	TypeUpvalue
	TypeFunction
	TypeClosure
	TypeClass
	TypeInstance
	TypeBoundMethod
	TypeNative
)

func (t ObjType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeUpvalue:
		return "upvalue"
	case TypeFunction:
		return "function"
	case TypeClosure:
		return "function"
	case TypeClass:
		return "class"
	case TypeInstance:
		return "instance"
	case TypeBoundMethod:
		return "function"
	case TypeNative:
		return "native function"
	default:
		return "object"
	}
}

// Obj is the interface every heap cell satisfies: a type discriminant, a
// human-readable rendering, and the GC bookkeeping (mark bit, intrusive
// "next" pointer threading every allocated cell onto the collector's heap
// list — spec.md §4.5 "walk the linked heap list" — and the tracked
// footprint Collector.Track recorded at allocation time, so sweep can
// decrement bytesAllocated precisely for whatever kind of cell it frees).
// Cells embed Header to get the bookkeeping methods for free; only the
// collector in pkg/gc calls Marked/SetMarked/Next/SetNext/Size/SetSize.
//
// Modeling heap cells as an interface rather than a tagged struct-pointer
// (the alternative spec.md §9 also sanctions) keeps downcasts to ordinary,
// checked Go type assertions instead of unsafe pointer arithmetic.
type Obj interface {
	ObjType() ObjType
	String() string
	Marked() bool
	SetMarked(bool)
	Next() Obj
	SetNext(Obj)
	Size() int
	SetSize(int)
}

// Header is embedded by every concrete cell type to supply the GC
// bookkeeping portion of the Obj interface.
type Header struct {
	Kind    ObjType
	marked  bool
	nextObj Obj
	size    int
}

func (h *Header) ObjType() ObjType { return h.Kind }
func (h *Header) Marked() bool     { return h.marked }
func (h *Header) SetMarked(m bool) { h.marked = m }
func (h *Header) Next() Obj        { return h.nextObj }
func (h *Header) SetNext(n Obj)    { h.nextObj = n }
func (h *Header) Size() int        { return h.size }
func (h *Header) SetSize(s int)    { h.size = s }

package riscv

const (
	XLEN = 64

	// DRAMBase is the first physical address backed by RAM.
	DRAMBase = uint64(0x8000_0000)

	// InstrLen is the byte length of an uncompressed instruction.
	InstrLen = 4

	RegZero = 0
	RegRA   = 1
	RegSP   = 2
	RegA0   = 10
	RegA1   = 11
	RegA2   = 12
	RegA7   = 17

	SysWrite     = 64
	SysExit      = 93
	SysExitGroup = 94

	FdStdout = 1
	FdStderr = 2

	EBADF  = 9
	ENOSYS = 38

	ErrUnknownOpCode       = uint64(0xf001c0de)
	ErrInvalidMemoryAccess = uint64(0xbad10ad0)
	ErrInvalidCSRAccess    = uint64(0xbadc0de0)
)

// Major opcodes (bits [0:7)).
const (
	OpcodeLoad     = 0x03 // 000_0011
	OpcodeMiscMem  = 0x0F // 000_1111
	OpcodeOpImm    = 0x13 // 001_0011
	OpcodeAUIPC    = 0x17 // 001_0111
	OpcodeOpImm32  = 0x1B // 001_1011
	OpcodeStore    = 0x23 // 010_0011
	OpcodeOp       = 0x33 // 011_0011
	OpcodeLUI      = 0x37 // 011_0111
	OpcodeOp32     = 0x3B // 011_1011
	OpcodeBranch   = 0x63 // 110_0011
	OpcodeJALR     = 0x67 // 110_0111
	OpcodeJAL      = 0x6F // 110_1111
	OpcodeSystem   = 0x73 // 111_0011
	funct7Base     = 0x00
	funct7Alt      = 0x20
	funct7MulDiv   = 0x01
	funct12ECALL   = 0x000
	funct12EBREAK  = 0x001
	funct12MRET    = 0x302
	shiftTypeLogic = 0x00
	shiftTypeArith = 0x10
)

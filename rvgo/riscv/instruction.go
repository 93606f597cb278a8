package riscv

import "fmt"

// Reg is a general-purpose register index, 0-31.
type Reg uint8

func (r Reg) String() string {
	return fmt.Sprintf("x%d", uint8(r))
}

// Op tags every instruction the decoder can produce.
type Op uint8

const (
	OpInvalid Op = iota

	// RV64I register-register
	ADD
	SUB
	SLL
	SLT
	SLTU
	XOR
	SRL
	SRA
	OR
	AND
	ADDW
	SUBW
	SLLW
	SRLW
	SRAW

	// RV64M
	MUL
	MULH
	MULHSU
	MULHU
	DIV
	DIVU
	REM
	REMU
	MULW
	DIVW
	DIVUW
	REMW
	REMUW

	// register-immediate
	ADDI
	SLTI
	SLTIU
	XORI
	ORI
	ANDI
	ADDIW
	SLLI
	SRLI
	SRAI
	SLLIW
	SRLIW
	SRAIW

	LB
	LH
	LW
	LD
	LBU
	LHU
	LWU

	SB
	SH
	SW
	SD

	BEQ
	BNE
	BLT
	BGE
	BLTU
	BGEU

	LUI
	AUIPC
	JAL
	JALR

	// Zicsr
	CSRRW
	CSRRS
	CSRRC
	CSRRWI
	CSRRSI
	CSRRCI

	ECALL
	EBREAK
	MRET
	FENCE
	FENCEI

	opCount
)

var opNames = [opCount]string{
	OpInvalid: "invalid",
	ADD: "add", SUB: "sub", SLL: "sll", SLT: "slt", SLTU: "sltu",
	XOR: "xor", SRL: "srl", SRA: "sra", OR: "or", AND: "and",
	ADDW: "addw", SUBW: "subw", SLLW: "sllw", SRLW: "srlw", SRAW: "sraw",
	MUL: "mul", MULH: "mulh", MULHSU: "mulhsu", MULHU: "mulhu",
	DIV: "div", DIVU: "divu", REM: "rem", REMU: "remu",
	MULW: "mulw", DIVW: "divw", DIVUW: "divuw", REMW: "remw", REMUW: "remuw",
	ADDI: "addi", SLTI: "slti", SLTIU: "sltiu", XORI: "xori", ORI: "ori", ANDI: "andi",
	ADDIW: "addiw", SLLI: "slli", SRLI: "srli", SRAI: "srai",
	SLLIW: "slliw", SRLIW: "srliw", SRAIW: "sraiw",
	LB: "lb", LH: "lh", LW: "lw", LD: "ld", LBU: "lbu", LHU: "lhu", LWU: "lwu",
	SB: "sb", SH: "sh", SW: "sw", SD: "sd",
	BEQ: "beq", BNE: "bne", BLT: "blt", BGE: "bge", BLTU: "bltu", BGEU: "bgeu",
	LUI: "lui", AUIPC: "auipc", JAL: "jal", JALR: "jalr",
	CSRRW: "csrrw", CSRRS: "csrrs", CSRRC: "csrrc",
	CSRRWI: "csrrwi", CSRRSI: "csrrsi", CSRRCI: "csrrci",
	ECALL: "ecall", EBREAK: "ebreak", MRET: "mret", FENCE: "fence", FENCEI: "fence.i",
}

func (op Op) String() string {
	if op >= opCount {
		return fmt.Sprintf("op(%d)", uint8(op))
	}
	return opNames[op]
}

// Instruction is a decoded instruction. The set of implementations is closed:
// each format carries only the operand fields its instructions use.
type Instruction interface {
	Op() Op
	String() string
	isInstruction()
}

// RType is a register-register operation: rd = rs1 op rs2.
type RType struct {
	Kind         Op
	Rd, Rs1, Rs2 Reg
}

// IType is a register-immediate operation: rd = rs1 op imm.
type IType struct {
	Kind    Op
	Rd, Rs1 Reg
	Imm     int64
}

// ShiftImm is a shift by an immediate amount.
type ShiftImm struct {
	Kind    Op
	Rd, Rs1 Reg
	Shamt   uint32
}

// Load reads memory at rs1+Offset into rd.
type Load struct {
	Kind    Op
	Rd, Rs1 Reg
	Offset  int64
}

// Store writes rs2 to memory at rs1+Offset.
type Store struct {
	Kind     Op
	Rs1, Rs2 Reg
	Offset   int64
}

// Branch jumps PC-relative by Offset when the comparison of rs1 and rs2 holds.
type Branch struct {
	Kind     Op
	Rs1, Rs2 Reg
	Offset   int64
}

// UType is LUI or AUIPC. Imm already has the low 12 bits cleared.
type UType struct {
	Kind Op
	Rd   Reg
	Imm  int64
}

// Jump is JAL.
type Jump struct {
	Rd     Reg
	Offset int64
}

// JumpReg is JALR.
type JumpReg struct {
	Rd, Rs1 Reg
	Offset  int64
}

// CSRReg is a Zicsr instruction taking its operand from rs1.
type CSRReg struct {
	Kind    Op
	Rd, Rs1 Reg
	CSR     uint16
}

// CSRImm is a Zicsr instruction taking a 5-bit unsigned immediate operand.
type CSRImm struct {
	Kind Op
	Rd   Reg
	Uimm uint8
	CSR  uint16
}

// System is an operand-less instruction: ECALL, EBREAK, MRET, FENCE, FENCE.I.
type System struct {
	Kind Op
}

func (i RType) Op() Op    { return i.Kind }
func (i IType) Op() Op    { return i.Kind }
func (i ShiftImm) Op() Op { return i.Kind }
func (i Load) Op() Op     { return i.Kind }
func (i Store) Op() Op    { return i.Kind }
func (i Branch) Op() Op   { return i.Kind }
func (i UType) Op() Op    { return i.Kind }
func (i Jump) Op() Op     { return JAL }
func (i JumpReg) Op() Op  { return JALR }
func (i CSRReg) Op() Op   { return i.Kind }
func (i CSRImm) Op() Op   { return i.Kind }
func (i System) Op() Op   { return i.Kind }

func (RType) isInstruction()    {}
func (IType) isInstruction()    {}
func (ShiftImm) isInstruction() {}
func (Load) isInstruction()     {}
func (Store) isInstruction()    {}
func (Branch) isInstruction()   {}
func (UType) isInstruction()    {}
func (Jump) isInstruction()     {}
func (JumpReg) isInstruction()  {}
func (CSRReg) isInstruction()   {}
func (CSRImm) isInstruction()   {}
func (System) isInstruction()   {}

func (i RType) String() string {
	return fmt.Sprintf("%s %s, %s, %s", i.Kind, i.Rd, i.Rs1, i.Rs2)
}

func (i IType) String() string {
	return fmt.Sprintf("%s %s, %s, %d", i.Kind, i.Rd, i.Rs1, i.Imm)
}

func (i ShiftImm) String() string {
	return fmt.Sprintf("%s %s, %s, %d", i.Kind, i.Rd, i.Rs1, i.Shamt)
}

func (i Load) String() string {
	return fmt.Sprintf("%s %s, %d(%s)", i.Kind, i.Rd, i.Offset, i.Rs1)
}

func (i Store) String() string {
	return fmt.Sprintf("%s %s, %d(%s)", i.Kind, i.Rs2, i.Offset, i.Rs1)
}

func (i Branch) String() string {
	return fmt.Sprintf("%s %s, %s, %d", i.Kind, i.Rs1, i.Rs2, i.Offset)
}

func (i UType) String() string {
	return fmt.Sprintf("%s %s, 0x%x", i.Kind, i.Rd, uint32(i.Imm)>>12)
}

func (i Jump) String() string {
	return fmt.Sprintf("jal %s, %d", i.Rd, i.Offset)
}

func (i JumpReg) String() string {
	return fmt.Sprintf("jalr %s, %d(%s)", i.Rd, i.Offset, i.Rs1)
}

func (i CSRReg) String() string {
	return fmt.Sprintf("%s %s, 0x%03x, %s", i.Kind, i.Rd, i.CSR, i.Rs1)
}

func (i CSRImm) String() string {
	return fmt.Sprintf("%s %s, 0x%03x, %d", i.Kind, i.Rd, i.CSR, i.Uimm)
}

func (i System) String() string {
	return i.Kind.String()
}

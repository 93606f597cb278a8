package riscv

// Functions to parse the instruction field values from different types of RISC-V instructions.
// Immediates are returned sign-extended to 64 bits.

func ParseOpcode(instr uint32) uint32 {
	return instr & 0x7F
}

func ParseRd(instr uint32) Reg {
	return Reg((instr >> 7) & 0x1F)
}

func ParseFunct3(instr uint32) uint32 {
	return (instr >> 12) & 0x7
}

func ParseRs1(instr uint32) Reg {
	return Reg((instr >> 15) & 0x1F)
}

func ParseRs2(instr uint32) Reg {
	return Reg((instr >> 20) & 0x1F)
}

func ParseFunct7(instr uint32) uint32 {
	return instr >> 25
}

// ParseCSR returns the 12-bit CSR address of a Zicsr instruction. It is unsigned.
func ParseCSR(instr uint32) uint16 {
	return uint16(instr >> 20)
}

func ParseImmTypeI(instr uint32) int64 {
	return int64(int32(instr) >> 20)
}

func ParseImmTypeS(instr uint32) int64 {
	imm := ((instr >> 25) << 5) | ((instr >> 7) & 0x1F)
	return signExtend(uint64(imm), 11)
}

// ParseImmTypeB returns the branch byte offset; it is always even.
func ParseImmTypeB(instr uint32) int64 {
	imm := ((instr >> 8) & 0xF) << 1
	imm |= ((instr >> 25) & 0x3F) << 5
	imm |= ((instr >> 7) & 1) << 11
	imm |= (instr >> 31) << 12
	return signExtend(uint64(imm), 12)
}

// ParseImmTypeU returns bits [12:32) in place with the low 12 bits zero, widened as a signed 32-bit value.
func ParseImmTypeU(instr uint32) int64 {
	return int64(int32(instr & 0xFFFF_F000))
}

func ParseImmTypeJ(instr uint32) int64 {
	imm := ((instr >> 21) & 0x3FF) << 1
	imm |= ((instr >> 20) & 1) << 11
	imm |= ((instr >> 12) & 0xFF) << 12
	imm |= (instr >> 31) << 20
	return signExtend(uint64(imm), 20)
}

// signExtend replicates bit `bit` of v into all higher bits.
func signExtend(v uint64, bit uint) int64 {
	shift := 63 - bit
	return int64(v<<shift) >> shift
}

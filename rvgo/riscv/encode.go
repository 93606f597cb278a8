package riscv

import "fmt"

type encoding struct {
	opcode uint32
	funct3 uint32
	funct7 uint32
}

var encodings = map[Op]encoding{
	ADD: {OpcodeOp, 0, funct7Base}, SUB: {OpcodeOp, 0, funct7Alt},
	SLL: {OpcodeOp, 1, funct7Base}, SLT: {OpcodeOp, 2, funct7Base},
	SLTU: {OpcodeOp, 3, funct7Base}, XOR: {OpcodeOp, 4, funct7Base},
	SRL: {OpcodeOp, 5, funct7Base}, SRA: {OpcodeOp, 5, funct7Alt},
	OR: {OpcodeOp, 6, funct7Base}, AND: {OpcodeOp, 7, funct7Base},
	ADDW: {OpcodeOp32, 0, funct7Base}, SUBW: {OpcodeOp32, 0, funct7Alt},
	SLLW: {OpcodeOp32, 1, funct7Base}, SRLW: {OpcodeOp32, 5, funct7Base},
	SRAW: {OpcodeOp32, 5, funct7Alt},

	MUL: {OpcodeOp, 0, funct7MulDiv}, MULH: {OpcodeOp, 1, funct7MulDiv},
	MULHSU: {OpcodeOp, 2, funct7MulDiv}, MULHU: {OpcodeOp, 3, funct7MulDiv},
	DIV: {OpcodeOp, 4, funct7MulDiv}, DIVU: {OpcodeOp, 5, funct7MulDiv},
	REM: {OpcodeOp, 6, funct7MulDiv}, REMU: {OpcodeOp, 7, funct7MulDiv},
	MULW: {OpcodeOp32, 0, funct7MulDiv}, DIVW: {OpcodeOp32, 4, funct7MulDiv},
	DIVUW: {OpcodeOp32, 5, funct7MulDiv}, REMW: {OpcodeOp32, 6, funct7MulDiv},
	REMUW: {OpcodeOp32, 7, funct7MulDiv},

	ADDI: {OpcodeOpImm, 0, 0}, SLTI: {OpcodeOpImm, 2, 0}, SLTIU: {OpcodeOpImm, 3, 0},
	XORI: {OpcodeOpImm, 4, 0}, ORI: {OpcodeOpImm, 6, 0}, ANDI: {OpcodeOpImm, 7, 0},
	ADDIW: {OpcodeOpImm32, 0, 0},

	// funct7 of the 64-bit immediate shifts holds the shift type in its top 6 bits
	SLLI: {OpcodeOpImm, 1, shiftTypeLogic << 1}, SRLI: {OpcodeOpImm, 5, shiftTypeLogic << 1},
	SRAI: {OpcodeOpImm, 5, shiftTypeArith << 1},
	SLLIW: {OpcodeOpImm32, 1, funct7Base}, SRLIW: {OpcodeOpImm32, 5, funct7Base},
	SRAIW: {OpcodeOpImm32, 5, funct7Alt},

	LB: {OpcodeLoad, 0, 0}, LH: {OpcodeLoad, 1, 0}, LW: {OpcodeLoad, 2, 0}, LD: {OpcodeLoad, 3, 0},
	LBU: {OpcodeLoad, 4, 0}, LHU: {OpcodeLoad, 5, 0}, LWU: {OpcodeLoad, 6, 0},
	SB: {OpcodeStore, 0, 0}, SH: {OpcodeStore, 1, 0}, SW: {OpcodeStore, 2, 0}, SD: {OpcodeStore, 3, 0},

	BEQ: {OpcodeBranch, 0, 0}, BNE: {OpcodeBranch, 1, 0}, BLT: {OpcodeBranch, 4, 0},
	BGE: {OpcodeBranch, 5, 0}, BLTU: {OpcodeBranch, 6, 0}, BGEU: {OpcodeBranch, 7, 0},

	LUI: {OpcodeLUI, 0, 0}, AUIPC: {OpcodeAUIPC, 0, 0},
	JAL: {OpcodeJAL, 0, 0}, JALR: {OpcodeJALR, 0, 0},

	CSRRW: {OpcodeSystem, 1, 0}, CSRRS: {OpcodeSystem, 2, 0}, CSRRC: {OpcodeSystem, 3, 0},
	CSRRWI: {OpcodeSystem, 5, 0}, CSRRSI: {OpcodeSystem, 6, 0}, CSRRCI: {OpcodeSystem, 7, 0},
}

// Encode assembles a decoded instruction back into its 32-bit form.
// It is the inverse of Decode for every instruction Decode accepts.
func Encode(instr Instruction) (uint32, error) {
	op := instr.Op()
	enc, ok := encodings[op]
	if !ok {
		if s, isSys := instr.(System); isSys {
			return encodeSystem(s.Kind)
		}
		return 0, fmt.Errorf("cannot encode %s", op)
	}
	switch in := instr.(type) {
	case RType:
		return packR(enc, in.Rd, in.Rs1, in.Rs2), nil
	case IType:
		if !fitsSigned(in.Imm, 12) {
			return 0, fmt.Errorf("%s immediate %d out of range", op, in.Imm)
		}
		return packI(enc, in.Rd, in.Rs1, uint32(in.Imm)), nil
	case ShiftImm:
		limit := uint32(64)
		if enc.opcode == OpcodeOpImm32 {
			limit = 32
		}
		if in.Shamt >= limit {
			return 0, fmt.Errorf("%s shift amount %d out of range", op, in.Shamt)
		}
		return packR(enc, in.Rd, in.Rs1, 0) | in.Shamt<<20, nil
	case Load:
		if !fitsSigned(in.Offset, 12) {
			return 0, fmt.Errorf("%s offset %d out of range", op, in.Offset)
		}
		return packI(enc, in.Rd, in.Rs1, uint32(in.Offset)), nil
	case Store:
		if !fitsSigned(in.Offset, 12) {
			return 0, fmt.Errorf("%s offset %d out of range", op, in.Offset)
		}
		imm := uint32(in.Offset)
		return enc.opcode | (imm&0x1F)<<7 | enc.funct3<<12 | uint32(in.Rs1)<<15 | uint32(in.Rs2)<<20 | (imm>>5&0x7F)<<25, nil
	case Branch:
		if !fitsSigned(in.Offset, 13) || in.Offset&1 != 0 {
			return 0, fmt.Errorf("%s offset %d out of range", op, in.Offset)
		}
		imm := uint32(in.Offset)
		return enc.opcode | (imm>>11&1)<<7 | (imm>>1&0xF)<<8 | enc.funct3<<12 |
			uint32(in.Rs1)<<15 | uint32(in.Rs2)<<20 | (imm>>5&0x3F)<<25 | (imm>>12&1)<<31, nil
	case UType:
		if in.Imm&0xFFF != 0 || !fitsSigned(in.Imm, 32) {
			return 0, fmt.Errorf("%s immediate %x out of range", op, in.Imm)
		}
		return enc.opcode | uint32(in.Rd)<<7 | uint32(in.Imm)&0xFFFF_F000, nil
	case Jump:
		if !fitsSigned(in.Offset, 21) || in.Offset&1 != 0 {
			return 0, fmt.Errorf("jal offset %d out of range", in.Offset)
		}
		imm := uint32(in.Offset)
		return enc.opcode | uint32(in.Rd)<<7 | (imm>>12&0xFF)<<12 | (imm>>11&1)<<20 |
			(imm>>1&0x3FF)<<21 | (imm>>20&1)<<31, nil
	case JumpReg:
		if !fitsSigned(in.Offset, 12) {
			return 0, fmt.Errorf("jalr offset %d out of range", in.Offset)
		}
		return packI(enc, in.Rd, in.Rs1, uint32(in.Offset)), nil
	case CSRReg:
		if in.CSR >= 1<<12 {
			return 0, fmt.Errorf("csr address %x out of range", in.CSR)
		}
		return packI(enc, in.Rd, in.Rs1, uint32(in.CSR)), nil
	case CSRImm:
		if in.CSR >= 1<<12 || in.Uimm >= 1<<5 {
			return 0, fmt.Errorf("%s operands out of range: csr %x imm %d", op, in.CSR, in.Uimm)
		}
		return packI(enc, in.Rd, Reg(in.Uimm), uint32(in.CSR)), nil
	}
	return 0, fmt.Errorf("cannot encode %T as %s", instr, op)
}

func encodeSystem(op Op) (uint32, error) {
	switch op {
	case ECALL:
		return funct12ECALL<<20 | OpcodeSystem, nil
	case EBREAK:
		return funct12EBREAK<<20 | OpcodeSystem, nil
	case MRET:
		return funct12MRET<<20 | OpcodeSystem, nil
	case FENCE:
		// fence iorw, iorw
		return 0xFF<<20 | OpcodeMiscMem, nil
	case FENCEI:
		return 1<<12 | OpcodeMiscMem, nil
	default:
		return 0, fmt.Errorf("cannot encode %s", op)
	}
}

func packR(enc encoding, rd, rs1, rs2 Reg) uint32 {
	return enc.opcode | uint32(rd&0x1F)<<7 | enc.funct3<<12 | uint32(rs1&0x1F)<<15 | uint32(rs2&0x1F)<<20 | enc.funct7<<25
}

func packI(enc encoding, rd, rs1 Reg, imm uint32) uint32 {
	return enc.opcode | uint32(rd&0x1F)<<7 | enc.funct3<<12 | uint32(rs1&0x1F)<<15 | (imm&0xFFF)<<20
}

func fitsSigned(v int64, bits uint) bool {
	limit := int64(1) << (bits - 1)
	return v >= -limit && v < limit
}

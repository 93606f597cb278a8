package riscv

// Decode turns a raw 32-bit instruction into its decoded form.
// Every bit pattern outside the supported RV64IM + Zicsr encodings
// returns an UnknownInstruction exception; there is no default case.
func Decode(instr uint32) (Instruction, error) {
	opcode := ParseOpcode(instr)
	rd := ParseRd(instr)
	funct3 := ParseFunct3(instr)
	rs1 := ParseRs1(instr)
	rs2 := ParseRs2(instr)
	funct7 := ParseFunct7(instr)

	switch opcode {
	case OpcodeOp: // 011_0011: register arithmetic and logic
		var op Op
		switch funct7 {
		case funct7Base:
			op = [8]Op{ADD, SLL, SLT, SLTU, XOR, SRL, OR, AND}[funct3]
		case funct7Alt:
			switch funct3 {
			case 0: // 000 = SUB
				op = SUB
			case 5: // 101 = SRA
				op = SRA
			}
		case funct7MulDiv: // RV M extension
			op = [8]Op{MUL, MULH, MULHSU, MULHU, DIV, DIVU, REM, REMU}[funct3]
		}
		if op == OpInvalid {
			return nil, NewUnknownInstruction(instr)
		}
		return RType{Kind: op, Rd: rd, Rs1: rs1, Rs2: rs2}, nil
	case OpcodeOp32: // 011_1011: register arithmetic and logic in 32 bits
		var op Op
		switch funct7 {
		case funct7Base:
			op = [8]Op{ADDW, SLLW, OpInvalid, OpInvalid, OpInvalid, SRLW, OpInvalid, OpInvalid}[funct3]
		case funct7Alt:
			switch funct3 {
			case 0: // 000 = SUBW
				op = SUBW
			case 5: // 101 = SRAW
				op = SRAW
			}
		case funct7MulDiv:
			op = [8]Op{MULW, OpInvalid, OpInvalid, OpInvalid, DIVW, DIVUW, REMW, REMUW}[funct3]
		}
		if op == OpInvalid {
			return nil, NewUnknownInstruction(instr)
		}
		return RType{Kind: op, Rd: rd, Rs1: rs1, Rs2: rs2}, nil
	case OpcodeOpImm: // 001_0011: immediate arithmetic and logic
		imm := ParseImmTypeI(instr)
		shamt := uint32(imm) & 0x3F // lower 6 bits in 64 bit mode
		shiftType := (instr >> 26) & 0x3F
		switch funct3 {
		case 0: // 000 = ADDI
			return IType{Kind: ADDI, Rd: rd, Rs1: rs1, Imm: imm}, nil
		case 1: // 001 = SLLI
			if shiftType != shiftTypeLogic {
				return nil, NewUnknownInstruction(instr)
			}
			return ShiftImm{Kind: SLLI, Rd: rd, Rs1: rs1, Shamt: shamt}, nil
		case 2: // 010 = SLTI
			return IType{Kind: SLTI, Rd: rd, Rs1: rs1, Imm: imm}, nil
		case 3: // 011 = SLTIU
			return IType{Kind: SLTIU, Rd: rd, Rs1: rs1, Imm: imm}, nil
		case 4: // 100 = XORI
			return IType{Kind: XORI, Rd: rd, Rs1: rs1, Imm: imm}, nil
		case 5: // 101 = SR~, the top 6 bits select the shift type
			switch shiftType {
			case shiftTypeLogic:
				return ShiftImm{Kind: SRLI, Rd: rd, Rs1: rs1, Shamt: shamt}, nil
			case shiftTypeArith:
				return ShiftImm{Kind: SRAI, Rd: rd, Rs1: rs1, Shamt: shamt}, nil
			}
			return nil, NewUnknownInstruction(instr)
		case 6: // 110 = ORI
			return IType{Kind: ORI, Rd: rd, Rs1: rs1, Imm: imm}, nil
		default: // 111 = ANDI
			return IType{Kind: ANDI, Rd: rd, Rs1: rs1, Imm: imm}, nil
		}
	case OpcodeOpImm32: // 001_1011: immediate arithmetic and logic signed 32 bit
		shamt := uint32(rs2) // lower 5 bits for W forms
		switch funct3 {
		case 0: // 000 = ADDIW
			return IType{Kind: ADDIW, Rd: rd, Rs1: rs1, Imm: ParseImmTypeI(instr)}, nil
		case 1: // 001 = SLLIW
			if funct7 == funct7Base {
				return ShiftImm{Kind: SLLIW, Rd: rd, Rs1: rs1, Shamt: shamt}, nil
			}
		case 5: // 101 = SR~W
			switch funct7 {
			case funct7Base:
				return ShiftImm{Kind: SRLIW, Rd: rd, Rs1: rs1, Shamt: shamt}, nil
			case funct7Alt:
				return ShiftImm{Kind: SRAIW, Rd: rd, Rs1: rs1, Shamt: shamt}, nil
			}
		}
		return nil, NewUnknownInstruction(instr)
	case OpcodeLoad: // 000_0011: memory loading
		op := [8]Op{LB, LH, LW, LD, LBU, LHU, LWU, OpInvalid}[funct3]
		if op == OpInvalid {
			return nil, NewUnknownInstruction(instr)
		}
		return Load{Kind: op, Rd: rd, Rs1: rs1, Offset: ParseImmTypeI(instr)}, nil
	case OpcodeStore: // 010_0011: memory storing
		if funct3 > 3 {
			return nil, NewUnknownInstruction(instr)
		}
		op := [4]Op{SB, SH, SW, SD}[funct3]
		return Store{Kind: op, Rs1: rs1, Rs2: rs2, Offset: ParseImmTypeS(instr)}, nil
	case OpcodeBranch: // 110_0011: branching
		op := [8]Op{BEQ, BNE, OpInvalid, OpInvalid, BLT, BGE, BLTU, BGEU}[funct3]
		if op == OpInvalid {
			return nil, NewUnknownInstruction(instr)
		}
		return Branch{Kind: op, Rs1: rs1, Rs2: rs2, Offset: ParseImmTypeB(instr)}, nil
	case OpcodeLUI: // 011_0111: LUI = Load upper immediate
		return UType{Kind: LUI, Rd: rd, Imm: ParseImmTypeU(instr)}, nil
	case OpcodeAUIPC: // 001_0111: AUIPC = Add upper immediate to PC
		return UType{Kind: AUIPC, Rd: rd, Imm: ParseImmTypeU(instr)}, nil
	case OpcodeJAL: // 110_1111: JAL = Jump and link
		return Jump{Rd: rd, Offset: ParseImmTypeJ(instr)}, nil
	case OpcodeJALR: // 110_0111: JALR = Jump and link register
		if funct3 != 0 {
			return nil, NewUnknownInstruction(instr)
		}
		return JumpReg{Rd: rd, Rs1: rs1, Offset: ParseImmTypeI(instr)}, nil
	case OpcodeMiscMem: // 000_1111: fence
		// No pipeline and no other harts, so there is nothing to order.
		switch funct3 {
		case 0:
			return System{Kind: FENCE}, nil
		case 1:
			return System{Kind: FENCEI}, nil
		}
		return nil, NewUnknownInstruction(instr)
	case OpcodeSystem: // 111_0011: environment things
		csr := ParseCSR(instr)
		switch funct3 {
		case 0: // 000 = ECALL/EBREAK/MRET, selected by the full 12-bit immediate
			switch csr {
			case funct12ECALL:
				return System{Kind: ECALL}, nil
			case funct12EBREAK:
				return System{Kind: EBREAK}, nil
			case funct12MRET:
				return System{Kind: MRET}, nil
			}
			return nil, NewUnknownInstruction(instr)
		case 1: // 001 = CSRRW
			return CSRReg{Kind: CSRRW, Rd: rd, Rs1: rs1, CSR: csr}, nil
		case 2: // 010 = CSRRS
			return CSRReg{Kind: CSRRS, Rd: rd, Rs1: rs1, CSR: csr}, nil
		case 3: // 011 = CSRRC
			return CSRReg{Kind: CSRRC, Rd: rd, Rs1: rs1, CSR: csr}, nil
		case 5: // 101 = CSRRWI
			return CSRImm{Kind: CSRRWI, Rd: rd, Uimm: uint8(rs1), CSR: csr}, nil
		case 6: // 110 = CSRRSI
			return CSRImm{Kind: CSRRSI, Rd: rd, Uimm: uint8(rs1), CSR: csr}, nil
		case 7: // 111 = CSRRCI
			return CSRImm{Kind: CSRRCI, Rd: rd, Uimm: uint8(rs1), CSR: csr}, nil
		}
		return nil, NewUnknownInstruction(instr)
	}
	return nil, NewUnknownInstruction(instr)
}

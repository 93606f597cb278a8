package riscv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeValid(t *testing.T) {
	cases := []struct {
		raw  uint32
		want Instruction
		asm  string
	}{
		{0x00500093, IType{Kind: ADDI, Rd: 1, Rs1: 0, Imm: 5}, "addi x1, x0, 5"},
		{0xfff00093, IType{Kind: ADDI, Rd: 1, Rs1: 0, Imm: -1}, "addi x1, x0, -1"},
		{0x00000013, IType{Kind: ADDI}, "addi x0, x0, 0"},
		{0x003100b3, RType{Kind: ADD, Rd: 1, Rs1: 2, Rs2: 3}, "add x1, x2, x3"},
		{0x403100b3, RType{Kind: SUB, Rd: 1, Rs1: 2, Rs2: 3}, "sub x1, x2, x3"},
		{0x4031d0b3, RType{Kind: SRA, Rd: 1, Rs1: 3, Rs2: 3}, "sra x1, x3, x3"},
		{0x023100b3, RType{Kind: MUL, Rd: 1, Rs1: 2, Rs2: 3}, "mul x1, x2, x3"},
		{0x023130b3, RType{Kind: MULHU, Rd: 1, Rs1: 2, Rs2: 3}, "mulhu x1, x2, x3"},
		{0x023140b3, RType{Kind: DIV, Rd: 1, Rs1: 2, Rs2: 3}, "div x1, x2, x3"},
		{0x023170b3, RType{Kind: REMU, Rd: 1, Rs1: 2, Rs2: 3}, "remu x1, x2, x3"},
		{0x003100bb, RType{Kind: ADDW, Rd: 1, Rs1: 2, Rs2: 3}, "addw x1, x2, x3"},
		{0x403150bb, RType{Kind: SRAW, Rd: 1, Rs1: 2, Rs2: 3}, "sraw x1, x2, x3"},
		{0x023140bb, RType{Kind: DIVW, Rd: 1, Rs1: 2, Rs2: 3}, "divw x1, x2, x3"},
		{0x023170bb, RType{Kind: REMUW, Rd: 1, Rs1: 2, Rs2: 3}, "remuw x1, x2, x3"},
		{0x03f11093, ShiftImm{Kind: SLLI, Rd: 1, Rs1: 2, Shamt: 63}, "slli x1, x2, 63"},
		{0x00415093, ShiftImm{Kind: SRLI, Rd: 1, Rs1: 2, Shamt: 4}, "srli x1, x2, 4"},
		{0x42015093, ShiftImm{Kind: SRAI, Rd: 1, Rs1: 2, Shamt: 32}, "srai x1, x2, 32"},
		{0x01f1109b, ShiftImm{Kind: SLLIW, Rd: 1, Rs1: 2, Shamt: 31}, "slliw x1, x2, 31"},
		{0x4011509b, ShiftImm{Kind: SRAIW, Rd: 1, Rs1: 2, Shamt: 1}, "sraiw x1, x2, 1"},
		{0xfff1009b, IType{Kind: ADDIW, Rd: 1, Rs1: 2, Imm: -1}, "addiw x1, x2, -1"},
		{0xffc12083, Load{Kind: LW, Rd: 1, Rs1: 2, Offset: -4}, "lw x1, -4(x2)"},
		{0x00813083, Load{Kind: LD, Rd: 1, Rs1: 2, Offset: 8}, "ld x1, 8(x2)"},
		{0x00016083, Load{Kind: LWU, Rd: 1, Rs1: 2, Offset: 0}, "lwu x1, 0(x2)"},
		{0xfe113c23, Store{Kind: SD, Rs1: 2, Rs2: 1, Offset: -8}, "sd x1, -8(x2)"},
		{0x00110123, Store{Kind: SB, Rs1: 2, Rs2: 1, Offset: 2}, "sb x1, 2(x2)"},
		{0x00028a63, Branch{Kind: BEQ, Rs1: 5, Rs2: 0, Offset: 20}, "beq x5, x0, 20"},
		{0xfe0298e3, Branch{Kind: BNE, Rs1: 5, Rs2: 0, Offset: -16}, "bne x5, x0, -16"},
		{0x0020f463, Branch{Kind: BGEU, Rs1: 1, Rs2: 2, Offset: 8}, "bgeu x1, x2, 8"},
		{0x123450b7, UType{Kind: LUI, Rd: 1, Imm: 0x12345000}, "lui x1, 0x12345"},
		{0xfffff097, UType{Kind: AUIPC, Rd: 1, Imm: -4096}, "auipc x1, 0xfffff"},
		{0x008000ef, Jump{Rd: 1, Offset: 8}, "jal x1, 8"},
		{0xffdff06f, Jump{Rd: 0, Offset: -4}, "jal x0, -4"},
		{0x00008067, JumpReg{Rd: 0, Rs1: 1, Offset: 0}, "jalr x0, 0(x1)"},
		{0x30011073, CSRReg{Kind: CSRRW, Rd: 0, Rs1: 2, CSR: 0x300}, "csrrw x0, 0x300, x2"},
		{0xf14020f3, CSRReg{Kind: CSRRS, Rd: 1, Rs1: 0, CSR: 0xf14}, "csrrs x1, 0xf14, x0"},
		{0x3400b0f3, CSRReg{Kind: CSRRC, Rd: 1, Rs1: 1, CSR: 0x340}, "csrrc x1, 0x340, x1"},
		{0x3407d0f3, CSRImm{Kind: CSRRWI, Rd: 1, Uimm: 15, CSR: 0x340}, "csrrwi x1, 0x340, 15"},
		{0x300fe073, CSRImm{Kind: CSRRSI, Rd: 0, Uimm: 31, CSR: 0x300}, "csrrsi x0, 0x300, 31"},
		{0x00000073, System{Kind: ECALL}, "ecall"},
		{0x00100073, System{Kind: EBREAK}, "ebreak"},
		{0x30200073, System{Kind: MRET}, "mret"},
		{0x0ff0000f, System{Kind: FENCE}, "fence"},
		{0x0000100f, System{Kind: FENCEI}, "fence.i"},
	}
	for _, tc := range cases {
		got, err := Decode(tc.raw)
		require.NoErrorf(t, err, "decode %08x", tc.raw)
		require.Equalf(t, tc.want, got, "decode %08x", tc.raw)
		require.Equal(t, tc.asm, got.String())

		enc, err := Encode(got)
		require.NoErrorf(t, err, "encode %s", got)
		again, err := Decode(enc)
		require.NoError(t, err)
		require.Equalf(t, got, again, "round trip of %08x via %08x", tc.raw, enc)
	}
}

func TestDecodeIgnoresEcallOperands(t *testing.T) {
	// rd and rs1 are not part of the ECALL/EBREAK match
	got, err := Decode(0x000080f3)
	require.NoError(t, err)
	require.Equal(t, System{Kind: ECALL}, got)
	got, err = Decode(0x001080f3)
	require.NoError(t, err)
	require.Equal(t, System{Kind: EBREAK}, got)
}

func TestDecodeInvalid(t *testing.T) {
	cases := []struct {
		name string
		raw  uint32
	}{
		{"all ones", 0xffffffff},
		{"all zeros", 0x00000000},
		{"compressed quadrant", 0x00000001},
		{"unknown opcode", 0x0000007f},
		{"op bad funct7", 0x043100b3},
		{"sub funct3 1", 0x403110b3},
		{"op32 funct3 2", 0x003120bb},
		{"mulw funct3 1", 0x023110bb},
		{"slli shift type", 0x40011093},
		{"srli bad shift type", 0x20015093},
		{"slliw funct7", 0x0201109b},
		{"sraiw bad funct7", 0x6011509b},
		{"addiw funct3 2", 0x0001209b},
		{"load funct3 7", 0x00017083},
		{"store funct3 4", 0x00114023},
		{"branch funct3 2", 0x00002063},
		{"jalr funct3 1", 0x00009067},
		{"fence funct3 2", 0x0000200f},
		{"system imm 2", 0x00200073},
		{"sret", 0x10200073},
		{"wfi", 0x10500073},
		{"system funct3 4", 0x00004073},
		{"float load", 0x00002007},
		{"amo", 0x0000202f},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode(tc.raw)
			require.Nil(t, got)
			var exc *Exception
			require.ErrorAs(t, err, &exc)
			require.Equal(t, UnknownInstruction, exc.Kind)
			require.Equal(t, uint64(tc.raw), exc.Value)
			require.Equal(t, ErrUnknownOpCode, exc.Code())
		})
	}
}

func TestEncodeRejectsOutOfRange(t *testing.T) {
	for _, in := range []Instruction{
		IType{Kind: ADDI, Imm: 2048},
		IType{Kind: ADDI, Imm: -2049},
		ShiftImm{Kind: SLLI, Shamt: 64},
		ShiftImm{Kind: SLLIW, Shamt: 32},
		Store{Kind: SD, Offset: 4096},
		Branch{Kind: BEQ, Offset: 3},
		Branch{Kind: BEQ, Offset: 4096},
		UType{Kind: LUI, Imm: 0x123},
		Jump{Offset: 1 << 20},
		CSRReg{Kind: CSRRW, CSR: 0x1000},
		CSRImm{Kind: CSRRWI, Uimm: 32},
		System{Kind: ADD},
	} {
		_, err := Encode(in)
		require.Errorf(t, err, "%#v", in)
	}
}

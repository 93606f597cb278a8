package emu

import (
	"fmt"

	"github.com/rv64emu/rv64emu/rvgo/csr"
	"github.com/rv64emu/rv64emu/rvgo/riscv"
)

// Execute applies a decoded instruction. It expects PC to already point past
// the instruction, as left by Fetch. On error the remaining side effects of
// the instruction are skipped and the error is returned.
func (c *CPU) Execute(instr riscv.Instruction) error {
	// address of the instruction itself; branch and jump targets are relative to it
	pc := c.PC - riscv.InstrLen

	switch in := instr.(type) {
	case riscv.RType:
		rs1, rs2 := c.ReadRegister(in.Rs1), c.ReadRegister(in.Rs2)
		v, err := aluReg(in.Kind, rs1, rs2)
		if err != nil {
			return err
		}
		c.WriteRegister(in.Rd, v)
	case riscv.IType:
		v, err := aluImm(in.Kind, c.ReadRegister(in.Rs1), uint64(in.Imm))
		if err != nil {
			return err
		}
		c.WriteRegister(in.Rd, v)
	case riscv.ShiftImm:
		v, err := shiftImm(in.Kind, c.ReadRegister(in.Rs1), uint64(in.Shamt))
		if err != nil {
			return err
		}
		c.WriteRegister(in.Rd, v)
	case riscv.Load:
		addr := c.ReadRegister(in.Rs1) + uint64(in.Offset)
		size, signed := loadWidth(in.Kind)
		if size == 0 {
			return fmt.Errorf("unsupported load %s", in.Kind)
		}
		v, err := c.bus.Read(addr, size)
		if err != nil {
			return err
		}
		if signed {
			v = signExtend(v, size*8-1)
		}
		c.WriteRegister(in.Rd, v)
	case riscv.Store:
		addr := c.ReadRegister(in.Rs1) + uint64(in.Offset)
		size := storeWidth(in.Kind)
		if size == 0 {
			return fmt.Errorf("unsupported store %s", in.Kind)
		}
		if err := c.bus.Write(addr, size, c.ReadRegister(in.Rs2)); err != nil {
			return err
		}
	case riscv.Branch:
		taken, err := branchTaken(in.Kind, c.ReadRegister(in.Rs1), c.ReadRegister(in.Rs2))
		if err != nil {
			return err
		}
		if taken {
			c.PC = pc + uint64(in.Offset)
		}
	case riscv.UType:
		switch in.Kind {
		case riscv.LUI:
			c.WriteRegister(in.Rd, uint64(in.Imm))
		case riscv.AUIPC:
			c.WriteRegister(in.Rd, pc+uint64(in.Imm))
		default:
			return fmt.Errorf("unsupported upper-immediate op %s", in.Kind)
		}
	case riscv.Jump:
		c.WriteRegister(in.Rd, pc+riscv.InstrLen)
		c.PC = pc + uint64(in.Offset)
	case riscv.JumpReg:
		// target is computed before rd is written: rd may equal rs1
		target := (c.ReadRegister(in.Rs1) + uint64(in.Offset)) &^ 1
		c.WriteRegister(in.Rd, pc+riscv.InstrLen)
		c.PC = target
	case riscv.CSRReg:
		return c.execCSR(in.Kind, in.Rd, in.CSR, c.ReadRegister(in.Rs1))
	case riscv.CSRImm:
		return c.execCSR(in.Kind, in.Rd, in.CSR, uint64(in.Uimm))
	case riscv.System:
		return c.execSystem(in.Kind)
	default:
		return fmt.Errorf("unsupported instruction type %T", instr)
	}
	return nil
}

func aluReg(op riscv.Op, a, b uint64) (uint64, error) {
	switch op {
	case riscv.ADD:
		return a + b, nil
	case riscv.SUB:
		return a - b, nil
	case riscv.SLL:
		return a << (b & 0x3F), nil
	case riscv.SLT:
		return boolToU64(int64(a) < int64(b)), nil
	case riscv.SLTU:
		return boolToU64(a < b), nil
	case riscv.XOR:
		return a ^ b, nil
	case riscv.SRL:
		return a >> (b & 0x3F), nil
	case riscv.SRA:
		return uint64(int64(a) >> (b & 0x3F)), nil
	case riscv.OR:
		return a | b, nil
	case riscv.AND:
		return a & b, nil
	case riscv.ADDW:
		return mask32Signed64(a + b), nil
	case riscv.SUBW:
		return mask32Signed64(a - b), nil
	case riscv.SLLW:
		return mask32Signed64(a << (b & 0x1F)), nil
	case riscv.SRLW:
		return mask32Signed64(uint64(uint32(a) >> (b & 0x1F))), nil
	case riscv.SRAW:
		return uint64(int64(int32(a) >> (b & 0x1F))), nil

	case riscv.MUL:
		return a * b, nil
	case riscv.MULH:
		return mulh(a, b), nil
	case riscv.MULHSU:
		return mulhsu(a, b), nil
	case riscv.MULHU:
		return mulhu(a, b), nil
	case riscv.DIV:
		return div(a, b), nil
	case riscv.DIVU:
		return divu(a, b), nil
	case riscv.REM:
		return rem(a, b), nil
	case riscv.REMU:
		return remu(a, b), nil
	case riscv.MULW:
		return mask32Signed64(uint64(uint32(a) * uint32(b))), nil
	case riscv.DIVW:
		return divw(a, b), nil
	case riscv.DIVUW:
		return divuw(a, b), nil
	case riscv.REMW:
		return remw(a, b), nil
	case riscv.REMUW:
		return remuw(a, b), nil
	default:
		return 0, fmt.Errorf("unsupported register op %s", op)
	}
}

func aluImm(op riscv.Op, a, imm uint64) (uint64, error) {
	switch op {
	case riscv.ADDI:
		return a + imm, nil
	case riscv.SLTI:
		return boolToU64(int64(a) < int64(imm)), nil
	case riscv.SLTIU:
		return boolToU64(a < imm), nil
	case riscv.XORI:
		return a ^ imm, nil
	case riscv.ORI:
		return a | imm, nil
	case riscv.ANDI:
		return a & imm, nil
	case riscv.ADDIW:
		return mask32Signed64(a + imm), nil
	default:
		return 0, fmt.Errorf("unsupported immediate op %s", op)
	}
}

func shiftImm(op riscv.Op, a, shamt uint64) (uint64, error) {
	switch op {
	case riscv.SLLI:
		return a << (shamt & 0x3F), nil
	case riscv.SRLI:
		return a >> (shamt & 0x3F), nil
	case riscv.SRAI:
		return uint64(int64(a) >> (shamt & 0x3F)), nil
	case riscv.SLLIW:
		return mask32Signed64(a << (shamt & 0x1F)), nil
	case riscv.SRLIW:
		return mask32Signed64(uint64(uint32(a) >> (shamt & 0x1F))), nil
	case riscv.SRAIW:
		return uint64(int64(int32(a) >> (shamt & 0x1F))), nil
	default:
		return 0, fmt.Errorf("unsupported shift op %s", op)
	}
}

// loadWidth returns the access size in bytes and whether the value is sign-extended.
func loadWidth(op riscv.Op) (uint64, bool) {
	switch op {
	case riscv.LB:
		return 1, true
	case riscv.LH:
		return 2, true
	case riscv.LW:
		return 4, true
	case riscv.LD:
		return 8, false
	case riscv.LBU:
		return 1, false
	case riscv.LHU:
		return 2, false
	case riscv.LWU:
		return 4, false
	default:
		return 0, false
	}
}

func storeWidth(op riscv.Op) uint64 {
	switch op {
	case riscv.SB:
		return 1
	case riscv.SH:
		return 2
	case riscv.SW:
		return 4
	case riscv.SD:
		return 8
	default:
		return 0
	}
}

func branchTaken(op riscv.Op, a, b uint64) (bool, error) {
	switch op {
	case riscv.BEQ:
		return a == b, nil
	case riscv.BNE:
		return a != b, nil
	case riscv.BLT:
		return int64(a) < int64(b), nil
	case riscv.BGE:
		return int64(a) >= int64(b), nil
	case riscv.BLTU:
		return a < b, nil
	case riscv.BGEU:
		return a >= b, nil
	default:
		return false, fmt.Errorf("unsupported branch %s", op)
	}
}

// execCSR performs an atomic read-modify-write of a CSR. The read is skipped
// for CSRRW/CSRRWI with rd = x0, and the write is skipped for the set/clear
// forms when the operand is zero, so neither side effect happens.
func (c *CPU) execCSR(op riscv.Op, rd riscv.Reg, addr uint16, operand uint64) error {
	var old uint64
	switch op {
	case riscv.CSRRW, riscv.CSRRWI:
		if rd != riscv.RegZero {
			v, err := c.csr.Read(addr)
			if err != nil {
				return err
			}
			old = v
		}
		if err := c.csr.Write(addr, operand); err != nil {
			return err
		}
	case riscv.CSRRS, riscv.CSRRSI, riscv.CSRRC, riscv.CSRRCI:
		v, err := c.csr.Read(addr)
		if err != nil {
			return err
		}
		old = v
		if operand != 0 {
			next := old | operand
			if op == riscv.CSRRC || op == riscv.CSRRCI {
				next = old &^ operand
			}
			if err := c.csr.Write(addr, next); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unsupported csr op %s", op)
	}
	c.WriteRegister(rd, old)
	return nil
}

func (c *CPU) execSystem(op riscv.Op) error {
	switch op {
	case riscv.ECALL:
		return c.env(c)
	case riscv.EBREAK:
		c.Halted = true
	case riscv.MRET:
		// single machine-mode hart: no privilege or interrupt-enable stack to restore
		epc, err := c.csr.Read(csr.Mepc)
		if err != nil {
			return err
		}
		c.PC = epc
	case riscv.FENCE, riscv.FENCEI:
		// no caches or reordering to synchronise
	default:
		return fmt.Errorf("unsupported system op %s", op)
	}
	return nil
}

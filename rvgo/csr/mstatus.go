package csr

// mstatus fields
const (
	StatusSIE  = uint64(1) << 1
	StatusMIE  = uint64(1) << 3
	StatusSPIE = uint64(1) << 5
	StatusMPIE = uint64(1) << 7
	StatusSPP  = uint64(1) << 8
	StatusVS   = uint64(0b11) << 9
	StatusMPP  = uint64(0b11) << 11
	StatusFS   = uint64(0b11) << 13
	StatusXS   = uint64(0b11) << 15
	StatusMPRV = uint64(1) << 17
	StatusSUM  = uint64(1) << 18
	StatusMXR  = uint64(1) << 19
	StatusTVM  = uint64(1) << 20
	StatusTW   = uint64(1) << 21
	StatusTSR  = uint64(1) << 22
	StatusUXL  = uint64(0b11) << 32
	StatusSXL  = uint64(0b11) << 34
	StatusSD   = uint64(1) << 63
)

// Bits software may change. FS and VS stay read-only zero: there is no F/D or V extension.
const mstatusWritable = StatusSIE | StatusMIE | StatusSPIE | StatusMPIE | StatusSPP | StatusMPP |
	StatusMPRV | StatusSUM | StatusMXR | StatusTVM | StatusTW | StatusTSR

// UXL and SXL are fixed to 2: user and supervisor mode are 64 bit.
const mstatusXLEN = uint64(2)<<32 | uint64(2)<<34

func writeMstatus(stored, v uint64) uint64 {
	next := (stored &^ mstatusWritable) | (v & mstatusWritable)
	return (next &^ (StatusUXL | StatusSXL)) | mstatusXLEN
}

// readMstatus derives SD: set when any of FS, VS or XS is dirty (0b11).
func readMstatus(stored uint64) uint64 {
	if stored&StatusFS == StatusFS || stored&StatusVS == StatusVS || stored&StatusXS == StatusXS {
		return stored | StatusSD
	}
	return stored &^ StatusSD
}

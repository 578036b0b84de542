package engine

import (
	"dissect/internal/arch"
	"dissect/internal/arch/arm"
	"dissect/internal/arch/arm64"
	"dissect/internal/arch/mips"
	"dissect/internal/arch/ppc"
	"dissect/internal/arch/x86"
	"dissect/internal/disasm"
)

// decoders is the architecture decoder table. Decoders are stateless
// values, so every handle of an architecture shares one.
var decoders = map[disasm.Arch]arch.Decoder{
	disasm.ArchARM:   arm.New(),
	disasm.ArchARM64: arm64.New(),
	disasm.ArchMIPS:  mips.New(),
	disasm.ArchX86:   x86.New(),
	disasm.ArchPPC:   ppc.New(),
}

// Lookup returns the decoder registered for a.
func Lookup(a disasm.Arch) (arch.Decoder, bool) {
	d, ok := decoders[a]
	return d, ok
}

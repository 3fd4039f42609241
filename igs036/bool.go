package igs036

// The enabling and direction functions below depend on the low 8 bits of
// the word address, though bits #5 and #6 are never consulted so each is
// really a function of 6 bits. They are all low-complexity, which
// suggests the hardware computes them directly rather than through
// lookup tables. Multiplexing over the simple functions here is
// functionally correct but should not be read as a claim about how the
// silicon derives them.

type boolFunc func(address int) int

func bit(i int) boolFunc {
	return func(address int) int { return address >> i & 1 }
}

func notBit(i int) boolFunc {
	return func(address int) int { return address>>i&1 ^ 1 }
}

func xorBits(i, j int) boolFunc {
	return func(address int) int { return address>>i&1 ^ address>>j&1 }
}

func xnorBits(i, j int) boolFunc {
	return func(address int) int { return address>>i&1 ^ address>>j&1 ^ 1 }
}

func norBits(i, j int) boolFunc {
	return func(address int) int { return (address>>i&1 | address>>j&1) ^ 1 }
}

// impliesBits is material implication, bit i implies bit j.
func impliesBits(i, j int) boolFunc {
	return func(address int) int { return address>>j&1 | (address>>i&1 ^ 1) }
}

func constant(value int) boolFunc {
	return func(int) int { return value }
}

// unknown stands in for the enabling rows that no known title ever
// exercises. They never fire, but the zeros are a gap in the recovered
// behaviour rather than a recovered constant, so they are kept separate
// from cZero.
func unknown(int) int { return 0 }

var (
	cZero = constant(0)
	cOne  = constant(1)

	bit3 = bit(3)
	bit4 = bit(4)
	bit7 = bit(7)

	not3 = notBit(3)
	not4 = notBit(4)
	not7 = notBit(7)

	xor37  = xorBits(3, 7)
	xnor37 = xnorBits(3, 7)
	xor47  = xorBits(4, 7)
	xnor47 = xnorBits(4, 7)

	nor34  = norBits(3, 4)
	impl43 = impliesBits(4, 3)
)

// rotEnabling decides whether a rotation group fires. It is indexed
// first by the group offset whose address bit was found set and then by
// the two lowest bits of the adjusted address.
var rotEnabling = [16][4]boolFunc{
	{bit3, not3, bit3, not3},
	{bit3, not3, bit3, not3},
	{bit4, bit4, bit4, bit4},
	{bit4, not4, bit4, not4},
	{bit3, bit3, bit3, bit3},
	{nor34, bit7, bit7, cZero},
	{cZero, cOne, cZero, cOne},
	{impl43, xor37, xnor37, not3},
	{bit3, bit3, not3, not3},
	{bit4, bit4, not4, not4},
	{cZero, cZero, cZero, cZero},
	{nor34, bit7, not7, cOne},
	{bit3, not3, bit3, not3},
	{cZero, cOne, cOne, cZero},
	{unknown, unknown, unknown, unknown},
	{unknown, unknown, unknown, unknown},
}

// rotDirection decides which way a firing group rotates. It is indexed
// first by the group, through the low bits of its leading offset, and
// then by the three lowest bits of the address.
var rotDirection = [4][8]boolFunc{
	{bit3, xor37, xnor37, not3, bit3, xor37, xnor37, not3},
	{cZero, not7, not7, cZero, cZero, not7, not7, cZero},
	{bit4, xor47, xnor47, not4, bit4, xor47, xnor47, not4},
	{bit3, not7, bit7, cZero, cOne, not7, bit7, cZero},
}

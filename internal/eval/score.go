// Package eval implements the tapered material-and-piece-square
// evaluator the search core calls through its Evaluator contract. It
// deliberately stops at a classical evaluation; an NNUE accumulator is
// out of scope here.
package eval

import "fmt"

// score packs a middlegame and an endgame term into one int32 so that
// PST tables can be summed with plain addition and split apart once,
// at the end, by the phase mix — the same trick the teacher's pesto
// evaluator uses.
type score int32

func s(mg, eg int16) score {
	return score(uint32(mg)<<16) + score(eg)
}

func (v score) mg() int16 { return int16(uint32(v+0x8000) >> 16) }
func (v score) eg() int16 { return int16(v) }

func (v score) String() string { return fmt.Sprintf("score(mg=%d, eg=%d)", v.mg(), v.eg()) }

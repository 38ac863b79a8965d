package sprig

import "github.com/hajimehoshi/ebiten/v2"

// Instruction is one entry of an instruction set.
type Instruction interface {
	// PipeID names the pipe (or batcher) that produced the instruction.
	PipeID() PipeID
}

// Executor is implemented by instructions that draw themselves. Pipes for
// custom node kinds return executors to plug into submission without
// changes to the renderer.
type Executor interface {
	Instruction
	Execute(target *ebiten.Image)
}

// InstructionSet is the per-group, append-only list pipes write into. It is
// reset only when its render group rebuilds.
type InstructionSet struct {
	instructions []Instruction
}

// Add appends an instruction.
func (s *InstructionSet) Add(in Instruction) {
	s.instructions = append(s.instructions, in)
}

// Len returns the number of instructions.
func (s *InstructionSet) Len() int {
	return len(s.instructions)
}

// At returns the instruction at index i.
func (s *InstructionSet) At(i int) Instruction {
	return s.instructions[i]
}

// Last returns the most recently added instruction, or nil.
func (s *InstructionSet) Last() Instruction {
	if len(s.instructions) == 0 {
		return nil
	}
	return s.instructions[len(s.instructions)-1]
}

// Reset empties the set, keeping its capacity.
func (s *InstructionSet) Reset() {
	clear(s.instructions)
	s.instructions = s.instructions[:0]
}

package main

// Input is one player's controls for one frame.
type Input uint8

const (
	InputJump  Input = 1 << 0
	InputLeft  Input = 1 << 1
	InputRight Input = 1 << 2
	InputDash  Input = 1 << 3

	inputMask = InputJump | InputLeft | InputRight | InputDash
)

func (in Input) Jump() bool  { return in&InputJump != 0 }
func (in Input) Left() bool  { return in&InputLeft != 0 }
func (in Input) Right() bool { return in&InputRight != 0 }
func (in Input) Dash() bool  { return in&InputDash != 0 }

// InputFromByte drops any bits the simulation does not know about.
func InputFromByte(b byte) Input {
	return Input(b) & inputMask
}

// inputFor returns the input for handle, or no input when the caller sent
// fewer entries than there are players.
func inputFor(inputs []Input, handle int) Input {
	if handle < len(inputs) {
		return inputs[handle]
	}
	return 0
}

package step

// callStack records which type's implementation is running on a step instance. The
// outermost frame is the external call; every deeper frame was entered through Super.
type callStack struct {
	frames []*Type
}

// enter pushes owner and reports whether the call is delegated.
func (c *callStack) enter(owner *Type) bool {
	c.frames = append(c.frames, owner)

	return len(c.frames) > 1
}

func (c *callStack) exit() {
	c.frames[len(c.frames)-1] = nil
	c.frames = c.frames[:len(c.frames)-1]
}

func (c *callStack) current() (*Type, bool) {
	if len(c.frames) == 0 {
		return nil, false
	}

	return c.frames[len(c.frames)-1], true
}

func (c *callStack) depth() int {
	return len(c.frames)
}

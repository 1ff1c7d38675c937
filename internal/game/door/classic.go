package door

// Classic wraps a three door, one reveal round for callers that only need the
// pick, stay/switch and open steps. It holds the current state and replaces it
// only when an operation succeeds.
type Classic struct {
	engine *Engine
	state  State
}

// NewClassic starts a classic round.
func NewClassic(e *Engine) (*Classic, error) {
	s, err := e.NewRound(ClassicConfig())
	if err != nil {
		return nil, err
	}
	return &Classic{engine: e, state: s}, nil
}

// State returns the current round state.
func (c *Classic) State() State {
	return c.state
}

// Pick chooses the first door and returns the door the host opened.
func (c *Classic) Pick(n int) (int, error) {
	next, err := c.engine.ChoosePrimaryDoor(c.state, n)
	if err != nil {
		return 0, err
	}
	c.state = next
	return next.Revealed[0], nil
}

// Stay keeps the original pick.
func (c *Classic) Stay() error {
	return c.apply(Stay())
}

// Switch moves to the only other closed door.
func (c *Classic) Switch() error {
	return c.apply(SwitchToOther())
}

// Open opens the held door and resolves the round.
func (c *Classic) Open() (Result, error) {
	next, err := c.engine.Resolve(c.state, c.state.ChosenDoor)
	if err != nil {
		return ResultNone, err
	}
	c.state = next
	return next.Result, nil
}

func (c *Classic) apply(d Decision) error {
	next, err := c.engine.Decide(c.state, d)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

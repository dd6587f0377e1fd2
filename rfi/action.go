package rfi

// Action is a node in the flagging pipeline tree. Perform either
// mutates the artifact set and returns nil, or reports a fatal error.
// Detection that finds no RFI is a success, not an error. Actions hold
// only immutable configuration during Perform, so one tree can execute
// concurrently on disjoint artifact sets.
type Action interface {
	// Name returns the stable identifier of the action type, also used
	// by the strategy file serializer.
	Name() string
	Perform(artifacts *ArtifactSet, listener ProgressListener) error
}

// ChildActions is implemented by block actions that own an ordered
// child sequence. The serializer and tree inspection use it.
type ChildActions interface {
	Children() []Action
}

// ActionBlock owns an ordered sequence of child actions. Blocks check
// the listener's cancellation flag between children; a cancelled block
// returns ErrCancelled, leaving the contaminated mask in its current
// (possibly partial) state.
type ActionBlock struct {
	children []Action
}

// Add appends a child action.
func (b *ActionBlock) Add(a Action) {
	b.children = append(b.children, a)
}

// Children returns the child sequence in execution order.
func (b *ActionBlock) Children() []Action {
	return b.children
}

// performChildren executes the children depth-first, left to right.
func (b *ActionBlock) performChildren(artifacts *ArtifactSet, listener ProgressListener) error {
	for _, child := range b.children {
		if listener.Cancelled() {
			return ErrCancelled
		}
		listener.OnStartAction(child.Name())
		if err := child.Perform(artifacts, listener); err != nil {
			return err
		}
	}
	return nil
}

// Strategy is the root block; executing it is one flagging pass over
// one artifact set.
type Strategy struct {
	ActionBlock
}

// NewStrategy returns an empty strategy.
func NewStrategy() *Strategy {
	return &Strategy{}
}

func (s *Strategy) Name() string { return "strategy" }

// Perform runs the whole tree on the artifact set.
func (s *Strategy) Perform(artifacts *ArtifactSet, listener ProgressListener) error {
	return s.performChildren(artifacts, listener)
}

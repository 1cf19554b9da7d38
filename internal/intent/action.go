package intent

// Action is a system action request derived from an intent.
type Action struct {
	Kind                 Kind
	Target               string
	Parameters           map[string]any
	RequiresConfirmation bool
}

// Type is the action type tag, e.g. "open_application".
func (a Action) Type() string {
	return a.Kind.String()
}

// ToAction maps an intent to the action it requests. Information, Greeting
// and Exit request nothing.
func ToAction(in Intent) (Action, bool) {
	switch in.Kind {
	case OpenApplication, SearchWeb, SystemControl, MediaControl:
		return Action{
			Kind:       in.Kind,
			Target:     in.Target,
			Parameters: in.Parameters,
		}, true
	default:
		return Action{}, false
	}
}

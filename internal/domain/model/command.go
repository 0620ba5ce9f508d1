package model

// Command is the descriptor of a host command attached to an affordance node.
// The tree engine never invokes host UI itself; it only hands these back.
type Command struct {
	Label     string
	CommandID string
	Args      []string
}

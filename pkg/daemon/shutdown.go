package daemon

// Please add the dependencies if you add your own priority here.
// Otherwise investigating deadlocks at shutdown is much more complicated.

const (
	PriorityGateway = iota // no dependencies
	PriorityRPCAPI         // depends on Gateway
	PriorityMetrics
)

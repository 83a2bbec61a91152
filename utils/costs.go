package utils

// Relative costs of layered circuit elements, used to score compiled circuits.
const (
	CostOfInput    = 1000
	CostOfVariable = 100
	CostOfMulGate  = 10
	CostOfAddGate  = 3
	CostOfCstGate  = 3
)

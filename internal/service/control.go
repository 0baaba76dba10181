package service

import "chamber_control/internal/actuator"

// Decide is the bang-bang rule: heat while strictly below target. There is
// no deadband, so the output flips exactly at the target.
func Decide(currentC, targetC float64) actuator.Command {
	if currentC < targetC {
		return actuator.CommandOn
	}
	return actuator.CommandOff
}

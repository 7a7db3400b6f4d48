package energy

import "calixoAPI/internal/types/challenge"

const (
	MinEnergy = 0
	MaxEnergy = 100
)

// UpdateEnergyOnChallengeComplete returns the avatar energy after a
// completed challenge. Focus work recharges the avatar the most.
func UpdateEnergyOnChallengeComplete(currentEnergy int, challengeType challenge.Type) int {
	gain := 10
	switch challengeType {
	case challenge.TypeFocus:
		gain = 15
	case challenge.TypeSocial:
		gain = 12
	}

	newEnergy := currentEnergy + gain
	if newEnergy > MaxEnergy {
		return MaxEnergy
	}
	if newEnergy < MinEnergy {
		return MinEnergy
	}
	return newEnergy
}

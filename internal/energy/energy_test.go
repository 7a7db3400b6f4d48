package energy

import (
	"testing"

	"calixoAPI/internal/types/challenge"
)

func TestUpdateEnergyOnChallengeComplete(t *testing.T) {
	cases := []struct {
		name    string
		current int
		chType  challenge.Type
		want    int
	}{
		{"daily gain", 50, challenge.TypeDaily, 60},
		{"focus gain", 50, challenge.TypeFocus, 65},
		{"social gain", 50, challenge.TypeSocial, 62},
		{"clamped at max", 95, challenge.TypeFocus, 100},
		{"exactly max", 90, challenge.TypeDaily, 100},
		{"from zero", 0, challenge.TypeSocial, 12},
		{"negative input clamps up", -20, challenge.TypeDaily, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := UpdateEnergyOnChallengeComplete(tc.current, tc.chType); got != tc.want {
				t.Errorf("UpdateEnergyOnChallengeComplete(%d, %s) = %d, want %d",
					tc.current, tc.chType, got, tc.want)
			}
		})
	}
}

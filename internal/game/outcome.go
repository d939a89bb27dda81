/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

// skip is the ledger value for an explicit abstention.
const skip = ""

// Tally returns the target with strictly the most votes. Any tie for the
// top count, including one involving skip, counts as skip.
func Tally(votes map[string]string) string {
	counts := make(map[string]int, len(votes))
	for _, target := range votes {
		counts[target]++
	}

	top, topCount, tied := skip, 0, false
	for option, c := range counts {
		switch {
		case c > topCount:
			top, topCount, tied = option, c, false
		case c == topCount:
			tied = true
		}
	}
	if tied {
		return skip
	}
	return top
}

// Winner decides the game from the alive head count. Saboteurs win at
// parity, not only at majority.
func Winner(saboteurs, crew int) (Role, bool) {
	switch {
	case saboteurs == 0:
		return RoleCrew, true
	case saboteurs >= crew:
		return RoleSaboteur, true
	}
	return "", false
}

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"crypto/rand"
	"math/big"
)

// SaboteurCount is one saboteur per five players, never fewer than one.
func SaboteurCount(n int) int {
	return max(1, n/5)
}

// shuffle is a Fisher-Yates shuffle backed by crypto/rand.
func shuffle(ids []string) {
	for i := len(ids) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		k := int(j.Int64())
		ids[i], ids[k] = ids[k], ids[i]
	}
}

// assignRoles makes the first SaboteurCount shuffled players saboteurs and
// everybody else crew.
func (r *Room) assignRoles() {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	r.shuffle(ids)

	saboteurs := SaboteurCount(len(ids))
	for i, id := range ids {
		role := RoleCrew
		if i < saboteurs {
			role = RoleSaboteur
		}
		r.players[id].Role = role
	}
}

package main

import (
	"strconv"
	"strings"
)

// awardRound pays out one finished round. The survivor, if any, takes
// numPlayers-1 points; the eliminated players are then paid in reverse
// elimination order, one point less each, never below zero.
func awardRound(scores []uint32, deathStack []int, survivor int) {
	award := len(scores) - 1
	if survivor >= 0 {
		scores[survivor] += uint32(award)
		award--
	}
	for i := len(deathStack) - 1; i >= 0; i-- {
		if award < 0 {
			award = 0
		}
		scores[deathStack[i]] += uint32(award)
		award--
	}
}

// Scoreboard renders the ledger in handle order, e.g. "3 - 1 - 0".
func Scoreboard(scores []uint32) string {
	parts := make([]string, len(scores))
	for i, sc := range scores {
		parts[i] = strconv.FormatUint(uint64(sc), 10)
	}
	return strings.Join(parts, " - ")
}

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

// Action names the player commands that are gated by phase. Joining and
// leaving are accepted in every phase and are not listed here.
type Action string

const (
	ActionStart       Action = "startGame"
	ActionMove        Action = "move"
	ActionReport      Action = "report"
	ActionCallMeeting Action = "callMeeting"
	ActionKill        Action = "kill"
	ActionSabotage    Action = "sabotage"
	ActionFix         Action = "fixSabotage"
	ActionChat        Action = "chat"
	ActionVote        Action = "vote"
	ActionRelay       Action = "rtc"
)

// transitions maps each phase to the actions it accepts and the phase the
// action nominally leads to. A kill or a completed tally may still end the
// game, and a completed tally returns a meeting to playing.
var transitions = map[Phase]map[Action]Phase{
	PhaseLobby: {
		ActionStart: PhasePlaying,
	},
	PhasePlaying: {
		ActionMove:        PhasePlaying,
		ActionKill:        PhasePlaying,
		ActionSabotage:    PhasePlaying,
		ActionFix:         PhasePlaying,
		ActionReport:      PhaseMeeting,
		ActionCallMeeting: PhaseMeeting,
	},
	PhaseMeeting: {
		ActionChat:  PhaseMeeting,
		ActionVote:  PhaseMeeting,
		ActionRelay: PhaseMeeting,
	},
	PhaseEnded: {},
}

// Next returns the phase action a leads to from p, or why it is refused.
func Next(p Phase, a Action) (Phase, error) {
	if p == PhaseEnded {
		return p, ErrGameEnded
	}
	next, ok := transitions[p][a]
	if !ok {
		return p, ErrWrongPhase
	}
	return next, nil
}

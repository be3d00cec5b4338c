package game

import "github.com/IsbatBInHossain/chess-game-server/internal/model"

// Outcome maps a termination reason to a result and a status label.
// For decisive reasons the acting side is the one that loses. An unknown
// reason still terminates, with an undecided result.
func Outcome(reason model.TerminationReason, acting model.Side) (string, model.GameStatus) {
	switch reason {
	case model.ReasonCheckmate:
		return lossFor(acting), sideStatus(acting, "checkmated")
	case model.ReasonStalemate:
		return model.ResultDraw, model.GameStatusStalemate
	case model.ReasonDraw:
		return model.ResultDraw, model.GameStatusDraw
	case model.ReasonResignation:
		return lossFor(acting), sideStatus(acting, "resigned")
	case model.ReasonTimeout:
		return lossFor(acting), sideStatus(acting, "timed_out")
	case model.ReasonAbandonment:
		return lossFor(acting), sideStatus(acting, "abandoned")
	case model.ReasonAborted:
		return model.ResultUndecided, model.GameStatusAborted
	default:
		return model.ResultUndecided, model.GameStatusUnknown
	}
}

func lossFor(side model.Side) string {
	if side == model.SideWhite {
		return model.ResultBlackWins
	}
	return model.ResultWhiteWins
}

func sideStatus(side model.Side, suffix string) model.GameStatus {
	return model.GameStatus(side.Name() + "_" + suffix)
}

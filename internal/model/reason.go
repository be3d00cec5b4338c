package model

// TerminationReason is why a session ended. The values double as protocol message types.
type TerminationReason string

const (
	ReasonCheckmate   TerminationReason = "checkmate"
	ReasonStalemate   TerminationReason = "stalemate"
	ReasonDraw        TerminationReason = "draw"
	ReasonResignation TerminationReason = "resign"
	ReasonTimeout     TerminationReason = "timeout"
	ReasonAbandonment TerminationReason = "abandonment"
	ReasonAborted     TerminationReason = "abort"
)

// TerminationReasons returns every recognised reason
func TerminationReasons() []TerminationReason {
	return []TerminationReason{
		ReasonCheckmate,
		ReasonStalemate,
		ReasonDraw,
		ReasonResignation,
		ReasonTimeout,
		ReasonAbandonment,
		ReasonAborted,
	}
}

// IsTerminationReason reports whether s names a recognised reason
func IsTerminationReason(s string) bool {
	for _, r := range TerminationReasons() {
		if string(r) == s {
			return true
		}
	}
	return false
}

// Winner values carried by game_over
const (
	WinnerWhite = "white"
	WinnerBlack = "black"
	WinnerNone  = "none"
)

// WinnerFromResult derives the winner from a result token
func WinnerFromResult(result string) string {
	switch result {
	case ResultWhiteWins:
		return WinnerWhite
	case ResultBlackWins:
		return WinnerBlack
	default:
		return WinnerNone
	}
}

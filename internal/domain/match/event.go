package match

type EventType string

const (
	EventKickoff       EventType = "kickoff"
	EventGoal          EventType = "goal"
	EventOwnGoal       EventType = "own_goal"
	EventShotOnTarget  EventType = "shot_on_target"
	EventShotOffTarget EventType = "shot_off_target"
	EventSave          EventType = "save"
	EventCornerKick    EventType = "corner_kick"
	EventFreeKick      EventType = "free_kick"
	EventPenaltyKick   EventType = "penalty_kick"
	EventYellowCard    EventType = "yellow_card"
	EventRedCard       EventType = "red_card"
	EventSubstitution  EventType = "substitution"
	EventFoul          EventType = "foul"
	EventOffside       EventType = "offside"
	EventHalftime      EventType = "halftime"
	EventExtratime     EventType = "extratime"
	EventFulltime      EventType = "fulltime"
	EventPenalties     EventType = "penalties"
	EventFinal         EventType = "final"
)

// IsScoring reports whether the event changes the scoreline.
func (t EventType) IsScoring() bool {
	return t == EventGoal || t == EventOwnGoal
}

type ScoreSnapshot struct {
	Team1 int `json:"team1"`
	Team2 int `json:"team2"`
}

// Event is one entry of a match timeline. Optional fields are omitted when unset.
type Event struct {
	Minute      float64        `json:"minute"`
	Type        EventType      `json:"type"`
	TeamID      string         `json:"teamId,omitempty"`
	PlayerID    string         `json:"playerId,omitempty"`
	PlayerName  string         `json:"playerName,omitempty"`
	SubIn       string         `json:"subIn,omitempty"`
	SubOut      string         `json:"subOut,omitempty"`
	Score       *ScoreSnapshot `json:"score,omitempty"`
	Description string         `json:"description"`
}

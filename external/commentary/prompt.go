package commentary

import (
	"strconv"

	"github.com/riskibarqy/nations-cup/internal/domain/match"
	"github.com/riskibarqy/nations-cup/internal/domain/player"
	"github.com/riskibarqy/nations-cup/internal/domain/team"
	"github.com/riskibarqy/nations-cup/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

const systemPrompt = "You are a football commentator for an international knockout tournament. " +
	"Reply with one short commentary line per timeline event, in the order given, one line per row. " +
	"Never change scores, minutes or scorers."

// buildPrompt renders the match context and the timeline as plain text.
func buildPrompt(req usecase.CommentaryRequest) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("Round: ")
	_, _ = buf.WriteString(string(req.Match.Round))
	_, _ = buf.WriteString("\nHome: ")
	writeTeam(buf, req.Home, req.Match.Team1Lineup)
	_, _ = buf.WriteString("\nAway: ")
	writeTeam(buf, req.Away, req.Match.Team2Lineup)

	_, _ = buf.WriteString("\nFinal score: ")
	writeScore(buf, req.Result, req.Home, req.Away)

	_, _ = buf.WriteString("\nTimeline:\n")
	for _, ev := range req.Events {
		_, _ = buf.WriteString(strconv.FormatFloat(ev.Minute, 'f', -1, 64))
		_, _ = buf.WriteString("' ")
		_, _ = buf.WriteString(string(ev.Type))
		if ev.PlayerName != "" {
			_, _ = buf.WriteString(" (")
			_, _ = buf.WriteString(ev.PlayerName)
			_ = buf.WriteByte(')')
		}
		_, _ = buf.WriteString(": ")
		_, _ = buf.WriteString(ev.Description)
		_ = buf.WriteByte('\n')
	}

	return buf.String()
}

func writeTeam(buf *bytebufferpool.ByteBuffer, t team.Team, lineup []string) {
	_, _ = buf.WriteString(t.Country)
	if t.Manager != "" {
		_, _ = buf.WriteString(", manager ")
		_, _ = buf.WriteString(t.Manager)
	}
	_, _ = buf.WriteString(", rating ")
	_, _ = buf.WriteString(strconv.FormatFloat(t.OverallRating, 'f', 1, 64))

	byID := player.IndexByID(t.Squad)
	names := 0
	for _, id := range lineup {
		p, ok := byID[id]
		if !ok {
			continue
		}
		if names == 0 {
			_, _ = buf.WriteString(", XI: ")
		} else {
			_, _ = buf.WriteString(", ")
		}
		_, _ = buf.WriteString(p.Name)
		if p.IsCaptain {
			_, _ = buf.WriteString(" (c)")
		}
		names++
	}
}

func writeScore(buf *bytebufferpool.ByteBuffer, res match.Result, home, away team.Team) {
	_, _ = buf.WriteString(home.Country)
	_ = buf.WriteByte(' ')
	_, _ = buf.WriteString(strconv.Itoa(res.Team1Score))
	_ = buf.WriteByte('-')
	_, _ = buf.WriteString(strconv.Itoa(res.Team2Score))
	_ = buf.WriteByte(' ')
	_, _ = buf.WriteString(away.Country)
	if res.WentToExtraTime {
		_, _ = buf.WriteString(" after extra time")
	}
	if res.WentToPenalties && res.PenaltyShootout != nil {
		_, _ = buf.WriteString(", penalties ")
		_, _ = buf.WriteString(strconv.Itoa(res.PenaltyShootout.Team1Score))
		_ = buf.WriteByte('-')
		_, _ = buf.WriteString(strconv.Itoa(res.PenaltyShootout.Team2Score))
	}
}

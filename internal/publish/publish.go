package publish

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ZJUSCT/rankboard/internal/common"
	"github.com/ZJUSCT/rankboard/internal/config"
	"github.com/ZJUSCT/rankboard/internal/database"
	"github.com/ZJUSCT/rankboard/internal/database/models"
	"github.com/ZJUSCT/rankboard/internal/ranking"
	"go.uber.org/zap"
)

// Lookback bounds how many recent renderings are scanned for one to replace.
// Older renderings are never considered, so a duplicate post is possible.
const Lookback = 10

type Action string

const (
	ActionReplace Action = "replace"
	ActionAppend  Action = "append"
)

type Decision struct {
	Action Action            `json:"action"`
	Target *models.Rendering `json:"target,omitempty"`
}

// LocatePriorRendering scans the Lookback most recent renderings and returns
// the first one authored by selfID whose title contains marker.
func LocatePriorRendering(recent []models.Rendering, selfID int64, marker string) *models.Rendering {
	if marker == "" {
		return nil
	}
	ordered := make([]models.Rendering, len(recent))
	copy(ordered, recent)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
		}
		return ordered[i].MessageID > ordered[j].MessageID
	})
	if len(ordered) > Lookback {
		ordered = ordered[:Lookback]
	}
	for i := range ordered {
		if ordered[i].AuthorID != selfID {
			continue
		}
		if strings.Contains(ordered[i].Title, marker) {
			found := ordered[i]
			return &found
		}
	}
	return nil
}

func Decide(recent []models.Rendering, selfID int64, marker string) Decision {
	if prior := LocatePriorRendering(recent, selfID, marker); prior != nil {
		return Decision{Action: ActionReplace, Target: prior}
	}
	return Decision{Action: ActionAppend}
}

// Plan is what the renderer needs to publish a track's leaderboard: where to
// put it and the first page to show.
type Plan struct {
	Decision
	Title string         `json:"title"`
	Board *ranking.Board `json:"board"`
}

type Coordinator struct {
	ledger  *database.Ledger
	ranking *ranking.Engine
	tracks  config.Tracks
	selfID  int64
}

func NewCoordinator(ledger *database.Ledger, rank *ranking.Engine, cfg *config.Config) *Coordinator {
	return &Coordinator{
		ledger:  ledger,
		ranking: rank,
		tracks:  cfg.Tracks,
		selfID:  cfg.Publication.SelfID,
	}
}

// Plan decides replace or append for a track's leaderboard in channelID and
// attaches the first page of standings.
func (c *Coordinator) Plan(channelID int64, track models.Track) (*Plan, error) {
	if !track.Valid() {
		return nil, common.Validationf("unknown track %q", track)
	}
	recent, err := c.ledger.RecentRenderings(channelID, Lookback)
	if err != nil {
		return nil, fmt.Errorf("plan publication: %w", err)
	}
	trackCfg := c.tracks.For(track)
	board, err := c.ranking.Board(track, 0, trackCfg.PerPage)
	if err != nil {
		return nil, fmt.Errorf("plan publication: %w", err)
	}

	decision := Decide(recent, c.selfID, trackCfg.Title)
	zap.S().Debugf("publication for %s in channel %d: %s", track, channelID, decision.Action)
	return &Plan{Decision: decision, Title: trackCfg.Title, Board: board}, nil
}

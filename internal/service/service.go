package service

import (
	"github.com/ZJUSCT/rankboard/internal/config"
	"github.com/ZJUSCT/rankboard/internal/database"
	"github.com/ZJUSCT/rankboard/internal/publish"
	"github.com/ZJUSCT/rankboard/internal/pubsub"
	"github.com/ZJUSCT/rankboard/internal/ranking"
	"github.com/ZJUSCT/rankboard/internal/scoring"
	"gorm.io/gorm"
)

// Services bundles the engines shared by both routers.
type Services struct {
	Ledger      *database.Ledger
	Scoring     *scoring.Engine
	Ranking     *ranking.Engine
	Publication *publish.Coordinator
	Broker      *pubsub.Broker
}

func New(cfg *config.Config, db *gorm.DB) *Services {
	ledger := database.NewLedger(db)
	rank := ranking.NewEngine(ledger)
	return &Services{
		Ledger:      ledger,
		Scoring:     scoring.NewEngine(ledger),
		Ranking:     rank,
		Publication: publish.NewCoordinator(ledger, rank, cfg),
		Broker:      pubsub.NewBroker(),
	}
}

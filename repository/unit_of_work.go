package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/botmakerspc/Stars-magnat-bota/database"
	"github.com/botmakerspc/Stars-magnat-bota/events"
	"github.com/botmakerspc/Stars-magnat-bota/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db                      *database.DB
	tx                      pgx.Tx
	ctx                     context.Context
	transactionalBus        *events.TransactionalBus
	accountRepo             service.AccountRepository
	balanceHistoryRepo      service.BalanceHistoryRepository
	tournamentRepo          service.TournamentRepository
	participationRepo       service.ParticipationRepository
	trophyRepo              service.TrophyRepository
	tournamentBroadcastRepo service.TournamentBroadcastRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.accountRepo = newAccountRepositoryWithTx(tx)
	u.balanceHistoryRepo = newBalanceHistoryRepositoryWithTx(tx)
	u.tournamentRepo = newTournamentRepositoryWithTx(tx)
	u.participationRepo = newParticipationRepositoryWithTx(tx)
	u.trophyRepo = newTrophyRepositoryWithTx(tx)
	u.tournamentBroadcastRepo = newTournamentBroadcastRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush()
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

func notStarted() {
	panic("unit of work not started - call Begin() first")
}

// AccountRepository returns the account repository for this unit of work
func (u *unitOfWork) AccountRepository() service.AccountRepository {
	if u.accountRepo == nil {
		notStarted()
	}
	return u.accountRepo
}

// BalanceHistoryRepository returns the balance history repository for this unit of work
func (u *unitOfWork) BalanceHistoryRepository() service.BalanceHistoryRepository {
	if u.balanceHistoryRepo == nil {
		notStarted()
	}
	return u.balanceHistoryRepo
}

// TournamentRepository returns the tournament repository for this unit of work
func (u *unitOfWork) TournamentRepository() service.TournamentRepository {
	if u.tournamentRepo == nil {
		notStarted()
	}
	return u.tournamentRepo
}

// ParticipationRepository returns the participation repository for this unit of work
func (u *unitOfWork) ParticipationRepository() service.ParticipationRepository {
	if u.participationRepo == nil {
		notStarted()
	}
	return u.participationRepo
}

// TrophyRepository returns the trophy repository for this unit of work
func (u *unitOfWork) TrophyRepository() service.TrophyRepository {
	if u.trophyRepo == nil {
		notStarted()
	}
	return u.trophyRepo
}

// TournamentBroadcastRepository returns the broadcast marker repository for this unit of work
func (u *unitOfWork) TournamentBroadcastRepository() service.TournamentBroadcastRepository {
	if u.tournamentBroadcastRepo == nil {
		notStarted()
	}
	return u.tournamentBroadcastRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		notStarted()
	}
	return u.transactionalBus
}

package service

import (
	"context"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/events"
	"github.com/botmakerspc/Stars-magnat-bota/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, accountID int64) (*models.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, accountID int64) (*models.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Upsert(ctx context.Context, accountID int64, displayName, username string) (*models.Account, bool, error) {
	args := m.Called(ctx, accountID, displayName, username)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Account), args.Bool(1), args.Error(2)
}

func (m *MockAccountRepository) AddBalance(ctx context.Context, accountID int64, delta decimal.Decimal) (*models.Account, error) {
	args := m.Called(ctx, accountID, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) IncrementReferrals(ctx context.Context, accountID int64) (int, error) {
	args := m.Called(ctx, accountID)
	return args.Int(0), args.Error(1)
}

func (m *MockAccountRepository) SetReferrer(ctx context.Context, accountID, referrerID int64) (bool, error) {
	args := m.Called(ctx, accountID, referrerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) SetLastBonus(ctx context.Context, accountID int64, at time.Time) error {
	args := m.Called(ctx, accountID, at)
	return args.Error(0)
}

func (m *MockAccountRepository) ListIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockAccountRepository) ListDueBonusReminders(ctx context.Context, cutoff time.Time, limit int) ([]*models.Account, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Account), args.Error(1)
}

func (m *MockAccountRepository) ListTopByBalance(ctx context.Context, limit int) ([]*models.Account, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Account), args.Error(1)
}

func (m *MockAccountRepository) MarkBonusReminded(ctx context.Context, accountID int64, at time.Time) error {
	args := m.Called(ctx, accountID, at)
	return args.Error(0)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

// MockTournamentRepository is a mock implementation of TournamentRepository
type MockTournamentRepository struct {
	mock.Mock
}

func (m *MockTournamentRepository) tournament(args mock.Arguments) (*models.Tournament, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tournament), args.Error(1)
}

func (m *MockTournamentRepository) tournaments(args mock.Arguments) ([]*models.Tournament, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Tournament), args.Error(1)
}

func (m *MockTournamentRepository) Create(ctx context.Context, tournament *models.Tournament) error {
	args := m.Called(ctx, tournament)
	return args.Error(0)
}

func (m *MockTournamentRepository) GetByID(ctx context.Context, id int64) (*models.Tournament, error) {
	return m.tournament(m.Called(ctx, id))
}

func (m *MockTournamentRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Tournament, error) {
	return m.tournament(m.Called(ctx, id))
}

func (m *MockTournamentRepository) GetActiveAt(ctx context.Context, now time.Time) (*models.Tournament, error) {
	return m.tournament(m.Called(ctx, now))
}

func (m *MockTournamentRepository) GetActiveByName(ctx context.Context, name string) (*models.Tournament, error) {
	return m.tournament(m.Called(ctx, name))
}

func (m *MockTournamentRepository) ListActiveWindowed(ctx context.Context, now time.Time) ([]*models.Tournament, error) {
	return m.tournaments(m.Called(ctx, now))
}

func (m *MockTournamentRepository) ListExpired(ctx context.Context, now time.Time) ([]*models.Tournament, error) {
	return m.tournaments(m.Called(ctx, now))
}

func (m *MockTournamentRepository) ListStartedBetween(ctx context.Context, from, to time.Time) ([]*models.Tournament, error) {
	return m.tournaments(m.Called(ctx, from, to))
}

func (m *MockTournamentRepository) ListOverlapping(ctx context.Context, start, end time.Time) ([]*models.Tournament, error) {
	return m.tournaments(m.Called(ctx, start, end))
}

func (m *MockTournamentRepository) ListRecent(ctx context.Context, limit int) ([]*models.Tournament, error) {
	return m.tournaments(m.Called(ctx, limit))
}

func (m *MockTournamentRepository) LockForCreate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTournamentRepository) MarkFinished(ctx context.Context, id int64, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

// MockParticipationRepository is a mock implementation of ParticipationRepository
type MockParticipationRepository struct {
	mock.Mock
}

func (m *MockParticipationRepository) Upsert(ctx context.Context, tournamentID, accountID int64) error {
	args := m.Called(ctx, tournamentID, accountID)
	return args.Error(0)
}

func (m *MockParticipationRepository) IncrementScore(ctx context.Context, tournamentID, accountID int64) (int, error) {
	args := m.Called(ctx, tournamentID, accountID)
	return args.Int(0), args.Error(1)
}

func (m *MockParticipationRepository) Get(ctx context.Context, tournamentID, accountID int64) (*models.Participation, error) {
	args := m.Called(ctx, tournamentID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Participation), args.Error(1)
}

func (m *MockParticipationRepository) Leaderboard(ctx context.Context, tournamentID int64, limit int) ([]*models.Standing, error) {
	args := m.Called(ctx, tournamentID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Standing), args.Error(1)
}

func (m *MockParticipationRepository) CountWithScoreAbove(ctx context.Context, tournamentID int64, score int) (int, error) {
	args := m.Called(ctx, tournamentID, score)
	return args.Int(0), args.Error(1)
}

func (m *MockParticipationRepository) Count(ctx context.Context, tournamentID int64) (int, error) {
	args := m.Called(ctx, tournamentID)
	return args.Int(0), args.Error(1)
}

// MockTrophyRepository is a mock implementation of TrophyRepository
type MockTrophyRepository struct {
	mock.Mock
}

func (m *MockTrophyRepository) Create(ctx context.Context, trophy *models.Trophy) error {
	args := m.Called(ctx, trophy)
	return args.Error(0)
}

func (m *MockTrophyRepository) ListByAccount(ctx context.Context, accountID int64) ([]*models.Trophy, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Trophy), args.Error(1)
}

func (m *MockTrophyRepository) ListByTournament(ctx context.Context, tournamentID int64) ([]*models.Trophy, error) {
	args := m.Called(ctx, tournamentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Trophy), args.Error(1)
}

// MockTournamentBroadcastRepository is a mock implementation of TournamentBroadcastRepository
type MockTournamentBroadcastRepository struct {
	mock.Mock
}

func (m *MockTournamentBroadcastRepository) Claim(ctx context.Context, tournamentID int64, at time.Time) (bool, error) {
	args := m.Called(ctx, tournamentID, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockTournamentBroadcastRepository) SetRecipients(ctx context.Context, tournamentID int64, recipients int) error {
	args := m.Called(ctx, tournamentID, recipients)
	return args.Error(0)
}

func (m *MockTournamentBroadcastRepository) DeleteClaimedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, accountID int64, message string) error {
	args := m.Called(ctx, accountID, message)
	return args.Error(0)
}

// MockLedgerService is a mock implementation of LedgerService
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) account(args mock.Arguments) (*models.Account, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockLedgerService) EnsureAccount(ctx context.Context, accountID int64, displayName, username string) (*models.Account, error) {
	return m.account(m.Called(ctx, accountID, displayName, username))
}

func (m *MockLedgerService) GetAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	return m.account(m.Called(ctx, accountID))
}

func (m *MockLedgerService) GetBalance(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerService) Credit(ctx context.Context, accountID int64, amount decimal.Decimal, txType models.TransactionType, metadata map[string]any) (*models.Account, error) {
	return m.account(m.Called(ctx, accountID, amount, txType, metadata))
}

func (m *MockLedgerService) Debit(ctx context.Context, accountID int64, amount decimal.Decimal, txType models.TransactionType, metadata map[string]any) (*models.Account, error) {
	return m.account(m.Called(ctx, accountID, amount, txType, metadata))
}

func (m *MockLedgerService) TryDebit(ctx context.Context, accountID int64, amount decimal.Decimal, txType models.TransactionType, metadata map[string]any) (*models.Account, error) {
	return m.account(m.Called(ctx, accountID, amount, txType, metadata))
}

func (m *MockLedgerService) IncrementReferrals(ctx context.Context, accountID int64) (int, error) {
	args := m.Called(ctx, accountID)
	return args.Int(0), args.Error(1)
}

func (m *MockLedgerService) ClaimDailyBonus(ctx context.Context, accountID int64, now time.Time) (*BonusClaim, error) {
	args := m.Called(ctx, accountID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BonusClaim), args.Error(1)
}

func (m *MockLedgerService) Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (*models.Account, error) {
	return m.account(m.Called(ctx, accountID, amount))
}

func (m *MockLedgerService) ListTrophies(ctx context.Context, accountID int64) ([]*models.Trophy, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Trophy), args.Error(1)
}

func (m *MockLedgerService) TopAccounts(ctx context.Context, limit int) ([]*models.Account, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Account), args.Error(1)
}

// MockUnitOfWork is a mock implementation of UnitOfWork.
// Repository getters return the exported mock fields.
type MockUnitOfWork struct {
	mock.Mock

	AccountRepo             *MockAccountRepository
	BalanceHistoryRepo      *MockBalanceHistoryRepository
	TournamentRepo          *MockTournamentRepository
	ParticipationRepo       *MockParticipationRepository
	TrophyRepo              *MockTrophyRepository
	TournamentBroadcastRepo *MockTournamentBroadcastRepository
	Events                  *MockEventPublisher
}

// NewMockUnitOfWork creates a mock unit of work with fresh repository mocks
func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		AccountRepo:             new(MockAccountRepository),
		BalanceHistoryRepo:      new(MockBalanceHistoryRepository),
		TournamentRepo:          new(MockTournamentRepository),
		ParticipationRepo:       new(MockParticipationRepository),
		TrophyRepo:              new(MockTrophyRepository),
		TournamentBroadcastRepo: new(MockTournamentBroadcastRepository),
		Events:                  new(MockEventPublisher),
	}
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) AccountRepository() AccountRepository { return m.AccountRepo }

func (m *MockUnitOfWork) BalanceHistoryRepository() BalanceHistoryRepository {
	return m.BalanceHistoryRepo
}

func (m *MockUnitOfWork) TournamentRepository() TournamentRepository { return m.TournamentRepo }

func (m *MockUnitOfWork) ParticipationRepository() ParticipationRepository {
	return m.ParticipationRepo
}

func (m *MockUnitOfWork) TrophyRepository() TrophyRepository { return m.TrophyRepo }

func (m *MockUnitOfWork) TournamentBroadcastRepository() TournamentBroadcastRepository {
	return m.TournamentBroadcastRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher { return m.Events }

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

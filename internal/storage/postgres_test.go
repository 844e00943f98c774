package storage

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"fintrack/internal/config"
	"fintrack/internal/models"
	"fintrack/internal/money"
	"fintrack/internal/report"
)

const postgresURLEnv = "FINTRACK_TEST_POSTGRES_URL"

// PostgresTestSuite runs the main flows against a real postgres server.
// Set FINTRACK_TEST_POSTGRES_URL to enable it; every table is truncated
// before each test.
type PostgresTestSuite struct {
	suite.Suite
	url string
	db  *DB
	ctx context.Context
}

func (s *PostgresTestSuite) SetupSuite() {
	s.url = os.Getenv(postgresURLEnv)
	if s.url == "" {
		s.T().Skipf("%s not set, skipping postgres integration tests", postgresURLEnv)
	}
}

func (s *PostgresTestSuite) SetupTest() {
	s.ctx = context.Background()
	db, err := Open(s.ctx, config.DatabaseConfig{Driver: config.DriverPostgres, URL: s.url}, nil)
	require.NoError(s.T(), err)
	s.db = db

	_, err = s.db.conn.Exec("TRUNCATE expenses, categories, users RESTART IDENTITY CASCADE")
	require.NoError(s.T(), err)
}

func (s *PostgresTestSuite) TearDownTest() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *PostgresTestSuite) TestDuplicateUsername() {
	_, err := s.db.CreateUser(s.ctx, "alice", "secret1", "")
	require.NoError(s.T(), err)

	_, err = s.db.CreateUser(s.ctx, "alice", "secret1", "")
	assert.ErrorIs(s.T(), err, models.ErrDuplicate)

	u, err := s.db.AuthenticateUser(s.ctx, "alice", "secret1")
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), u)
}

func (s *PostgresTestSuite) TestExpenseLifecycle() {
	u, err := s.db.CreateUser(s.ctx, "alice", "secret1", "alice@example.com")
	require.NoError(s.T(), err)
	food, err := s.db.CreateCategory(s.ctx, "Food")
	require.NoError(s.T(), err)

	e, err := s.db.CreateExpense(s.ctx, u.ID, food.ID, "Lunch", amount("12.50"))
	require.NoError(s.T(), err)

	list, err := s.db.ListExpenses(s.ctx, &u.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), list, 1)
	assert.Equal(s.T(), "12.50", money.Format(list[0].Amount))
	assert.Equal(s.T(), "Food", list[0].Category.Name)

	updated, err := s.db.UpdateExpense(s.ctx, e.ID, models.ExpenseUpdate{Name: ptr("Dinner")})
	require.NoError(s.T(), err)
	assert.False(s.T(), updated.UpdatedAt.Before(e.UpdatedAt))

	_, err = s.db.CreateExpense(s.ctx, 9999, food.ID, "Ghost", amount("1.00"))
	assert.ErrorIs(s.T(), err, models.ErrStorage)

	require.NoError(s.T(), s.db.DeleteExpense(s.ctx, e.ID))
	assert.ErrorIs(s.T(), s.db.DeleteExpense(s.ctx, e.ID), models.ErrNotFound)
}

func (s *PostgresTestSuite) TestAggregates() {
	u, err := s.db.CreateUser(s.ctx, "alice", "secret1", "")
	require.NoError(s.T(), err)
	food, err := s.db.CreateCategory(s.ctx, "Food")
	require.NoError(s.T(), err)

	e, err := s.db.CreateExpense(s.ctx, u.ID, food.ID, "Groceries", amount("20.00"))
	require.NoError(s.T(), err)
	_, err = s.db.conn.Exec("UPDATE expenses SET created_at = LOCALTIMESTAMP - INTERVAL '2 days' WHERE id = $1", e.ID)
	require.NoError(s.T(), err)

	dates, amounts, err := s.db.GetExpenseAggregatesByDate(s.ctx, u.ID, 3)
	require.NoError(s.T(), err)
	require.Len(s.T(), dates, 3)
	assert.Equal(s.T(), "20.00", money.Format(amounts[0]))
	assert.Equal(s.T(), "20.00", money.Format(report.Total(amounts)))
}

func (s *PostgresTestSuite) TestCascade() {
	u, err := s.db.CreateUser(s.ctx, "alice", "secret1", "")
	require.NoError(s.T(), err)
	food, err := s.db.CreateCategory(s.ctx, "Food")
	require.NoError(s.T(), err)
	_, err = s.db.CreateExpense(s.ctx, u.ID, food.ID, "Lunch", amount("1.00"))
	require.NoError(s.T(), err)

	_, err = s.db.conn.Exec("DELETE FROM users WHERE id = $1", u.ID)
	require.NoError(s.T(), err)

	list, err := s.db.ListExpenses(s.ctx, nil)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), list)
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(PostgresTestSuite))
}

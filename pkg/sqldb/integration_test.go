package sqldb

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ajitpratap0/importdata/pkg/config"
	"github.com/ajitpratap0/importdata/pkg/testutil"
)

// backendSuite runs the same checks against a live server.
type backendSuite struct {
	testutil.IntegrationTestSuite
	spec string
	cfg  config.DatabaseConfig
	db   Database
}

func (s *backendSuite) SetupTest() {
	db, err := Connect(s.Context(), s.spec, s.cfg, testutil.TestLogger(s.T()))
	s.Require().NoError(err)
	s.db = db
}

func (s *backendSuite) TearDownTest() {
	if s.db != nil {
		s.NoError(s.db.Close())
	}
}

func (s *backendSuite) TestTemporaryTableRoundTrip() {
	ctx := s.Context()
	q := s.db.QuoteField

	s.Require().NoError(s.db.Execute(ctx, "BEGIN"))
	s.Require().NoError(s.db.Execute(ctx,
		"CREATE TEMPORARY TABLE "+q("importdata_it")+" ("+q("n")+" BIGINT, "+q("s")+" TEXT)"))

	insert := "INSERT INTO " + q("importdata_it") + " (" + q("n") + "," + q("s") + ") VALUES (" +
		s.db.Placeholder(0) + "," + s.db.Placeholder(1) + ")"
	res, err := s.db.Query(ctx, insert, []sql.NullString{{String: "7", Valid: true}, {}})
	s.Require().NoError(err)
	s.NoError(res.Close())

	res, err = s.db.Query(ctx, "SELECT "+q("n")+", "+q("s")+" FROM "+q("importdata_it"), nil)
	s.Require().NoError(err)
	defer res.Close()

	ok, err := res.Step()
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal("7", res.Text(0))
	s.True(res.IsNull(1))

	s.NoError(s.db.Execute(ctx, "ROLLBACK"))
}

func (s *backendSuite) TestExistTable() {
	ok, err := s.db.ExistTable(s.Context(), "importdata_missing_table")
	s.Require().NoError(err)
	s.False(ok)
}

func TestPostgresIntegration(t *testing.T) {
	testutil.IntegrationTest(t)
	conn := testutil.RequireEnv(t, "IMPORTDATA_PG_TEST")

	suite.Run(t, &backendSuite{
		spec: "pg",
		cfg:  config.DatabaseConfig{Postgres: config.PostgresConfig{ConnString: conn}},
	})
}

func TestMySQLIntegration(t *testing.T) {
	testutil.IntegrationTest(t)
	database := testutil.RequireEnv(t, "IMPORTDATA_MYSQL_TEST")

	suite.Run(t, &backendSuite{spec: "mysql:" + database})
}

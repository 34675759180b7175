// internal/store/config_test.go
//
// Run: go test ./internal/store -v

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_EmptyYieldsDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestParse_MergesOverDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`{"primaryColor":"#b91c1c","borderRadius":"xl"}`))
	require.NoError(t, err)
	assert.Equal(t, "#b91c1c", cfg.PrimaryColor)
	assert.Equal(t, "xl", cfg.BorderRadius)
	// Untouched fields keep their defaults.
	assert.Equal(t, "medium", cfg.ItemCardSize)
	assert.True(t, cfg.Sections.NewArrivals)
	assert.NotNil(t, cfg.CustomLinks)
}

func TestParse_RoundTripKeepsDocument(t *testing.T) {
	doc := []byte(`{
		"headerImageUrl": "https://cdn.acme.test/header.png",
		"primaryColor": "#b91c1c",
		"accentColor": "#0f766e",
		"borderRadius": "xl",
		"sections": {
			"navigation": true,
			"hero": true,
			"newArrivals": false,
			"products": true,
			"featured": false
		}
	}`)

	cfg, err := Parse(doc)
	require.NoError(t, err)

	// Persist and re-read the way Save/Load do.
	stored, err := json.Marshal(cfg)
	require.NoError(t, err)
	again, err := Parse(stored)
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.acme.test/header.png", again.HeaderImageURL)
	assert.Equal(t, "#b91c1c", again.PrimaryColor)
	assert.Equal(t, "#0f766e", again.AccentColor)
	assert.Equal(t, "xl", again.BorderRadius)
	assert.False(t, again.Sections.NewArrivals)
	assert.False(t, again.Sections.Featured)
	assert.True(t, again.Sections.Hero)
}

func TestParse_BadJSON(t *testing.T) {
	_, err := Parse([]byte(`{nope`))
	assert.Error(t, err)
}

func TestCSSVars_TokenTable(t *testing.T) {
	cfg := Defaults()
	cfg.PrimaryColor = "#b91c1c"
	cfg.BorderRadius = "xl"
	cfg.ItemCardSize = "large"

	vars := cfg.CSSVars()
	assert.Equal(t, "#b91c1c", vars["--store-primary"])
	assert.Equal(t, "16px", vars["--store-radius"])
	assert.Equal(t, "320px", vars["--store-card-width"])
	assert.Equal(t, "40px", vars["--store-button-height"])
	// Unset accent defers to the site theme.
	assert.Equal(t, "hsl(var(--accent))", vars["--store-accent"])
}

func TestCSSVars_UnknownValuesFallBack(t *testing.T) {
	cfg := Defaults()
	cfg.BorderRadius = "enormous"
	cfg.ItemCardSize = "tiny"

	vars := cfg.CSSVars()
	assert.Equal(t, "8px", vars["--store-radius"])
	assert.Equal(t, "260px", vars["--store-card-width"])
}

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewService(sqlx.NewDb(db, "sqlmock")), mock
}

func TestLoad_NoRowYieldsDefaults(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT config FROM store_configs`).
		WillReturnError(sql.ErrNoRows)

	cfg, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_MergesStoredDocument(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT config FROM store_configs`).
		WillReturnRows(sqlmock.NewRows([]string{"config"}).
			AddRow([]byte(`{"headerImageUrl":"https://cdn.acme.test/h.png","buttonSize":"lg"}`)))

	cfg, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.acme.test/h.png", cfg.HeaderImageURL)
	assert.Equal(t, "lg", cfg.ButtonSize)
	assert.Equal(t, "md", cfg.BorderRadius)
}

func TestSave_ReplacesSingleRow(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM store_configs`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO store_configs`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.Save(context.Background(), Defaults())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/timecard-reconciler/internal/allowlist"
	"github.com/garyjia/timecard-reconciler/internal/models"
	"github.com/garyjia/timecard-reconciler/pkg/database"
)

func setupDB(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{Path: filepath.Join(t.TempDir(), "timecard.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewMigrator(db, zap.NewNop()).Migrate(ctx))
	return db
}

func summary(name string, balance int, signed bool, at time.Time) models.Summary {
	return models.Summary{
		Employee:        name,
		Period:          "03/2025",
		Expected:        "176:00",
		Worked:          "176:00",
		Balance:         "+00:00",
		ExpectedMinutes: 10560,
		WorkedMinutes:   10560 + balance,
		BalanceMinutes:  balance,
		Signed:          signed,
		SourceFile:      name + ".pdf",
		ProcessedAt:     at,
		Days: []models.Day{
			{Date: "03/03/2025", DayType: "Normal", DurationCode: "08:00:00", ExpectedMinutes: 480, WorkedMinutes: 480},
			{Date: "04/03/2025", DayType: "Special", DurationCode: "08:00:00", ExpectedMinutes: 480, WorkedMinutes: 480, Note: "FERIADO"},
		},
	}
}

func TestTimesheetRepository_SaveAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewTimesheetRepository(setupDB(t), zap.NewNop())
	now := time.Now().UTC().Truncate(time.Second)
	run := models.Run{ID: "run-1", StartedAt: now, FinishedAt: now.Add(time.Second), Documents: 3, Succeeded: 2, Failed: 1}

	err := repo.SaveRun(ctx, run,
		[]models.Summary{summary("Maria Souza", 30, true, now), summary("João da Silva", -90, false, now.Add(time.Minute))},
		[]models.Failure{{Path: "x.pdf", Reason: "ExtractionFailed", Detail: "extraction failed"}})
	require.NoError(t, err)

	list, err := repo.ListSummaries(ctx, 10, 0, true)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "João da Silva", list[0].Employee, "newest first")
	assert.Equal(t, "run-1", list[0].RunID)
	assert.Equal(t, -90, list[0].BalanceMinutes)
	require.Len(t, list[1].Days, 2)
	assert.Equal(t, "FERIADO", list[1].Days[1].Note)

	paged, err := repo.ListSummaries(ctx, 1, 1, false)
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "Maria Souza", paged[0].Employee)
	assert.Empty(t, paged[0].Days)
}

func TestTimesheetRepository_StatsAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewTimesheetRepository(setupDB(t), zap.NewNop())
	now := time.Now().UTC()

	empty, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.Equal(t, "+00:00", empty.TotalBalance)

	require.NoError(t, repo.SaveRun(ctx, models.Run{ID: "r", StartedAt: now, FinishedAt: now},
		[]models.Summary{summary("A B", 30, true, now), summary("C D", -90, false, now)}, nil))

	st, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 1, st.Signed)
	assert.Equal(t, 1, st.Unsigned)
	assert.Equal(t, -60, st.TotalBalanceMinutes)
	assert.Equal(t, "-01:00", st.TotalBalance)

	n, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	list, err := repo.ListSummaries(ctx, 10, 0, false)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTimesheetRepository_SaveRunIsAtomic(t *testing.T) {
	ctx := context.Background()
	repo := NewTimesheetRepository(setupDB(t), zap.NewNop())
	now := time.Now().UTC()
	run := models.Run{ID: "dup", StartedAt: now, FinishedAt: now}

	require.NoError(t, repo.SaveRun(ctx, run, []models.Summary{summary("A B", 0, true, now)}, nil))
	err := repo.SaveRun(ctx, run, []models.Summary{summary("C D", 0, true, now)}, nil)

	require.Error(t, err)
	list, err := repo.ListSummaries(ctx, 10, 0, false)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEmployeeRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewEmployeeRepository(setupDB(t), zap.NewNop())

	e, err := repo.UpsertEmployee(ctx, "  JOAO   DA SILVA ")
	require.NoError(t, err)
	assert.Equal(t, "JOAO DA SILVA", e.Name)
	assert.True(t, e.Active)

	e, err = repo.UpsertEmployee(ctx, "João da Silva")
	require.NoError(t, err)
	assert.Equal(t, "João da Silva", e.Name, "same folded name keeps one row with the new spelling")

	_, err = repo.UpsertEmployee(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = repo.UpsertEmployee(ctx, "Maria Souza")
	require.NoError(t, err)

	ok, err := repo.DeactivateEmployee(ctx, "MARIA SOUZA")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.DeactivateEmployee(ctx, "Nobody Here")
	require.NoError(t, err)
	assert.False(t, ok)

	all, err := repo.ListEmployees(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	names, err := repo.ActiveEmployeeNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"João da Silva"}, names)
}

func TestEmployeeRepository_ReplaceFeedsAllowlist(t *testing.T) {
	ctx := context.Background()
	repo := NewEmployeeRepository(setupDB(t), zap.NewNop())
	_, err := repo.UpsertEmployee(ctx, "Old Employee")
	require.NoError(t, err)

	n, err := repo.ReplaceEmployees(ctx, []string{"Ana Lima", "ANA LIMA", "", "Pedro Alves"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := allowlist.Load(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Len())
	name, ok := list.Match("PEDRO ALVES")
	assert.True(t, ok)
	assert.Equal(t, "Pedro Alves", name)
	assert.False(t, list.Contains("Old Employee"))
}

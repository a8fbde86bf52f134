package header

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/timecard-reconciler/internal/allowlist"
	"github.com/garyjia/timecard-reconciler/internal/domain/timesheet"
)

func TestResolve_AccentInsensitiveMatch(t *testing.T) {
	list := allowlist.New([]string{"Maria Souza", "João da Silva"})
	r := NewResolver(list, zap.NewNop())
	rows := [][]string{
		{"FOLHA DE PONTO"},
		{"JOÃO DA SILVA", "ANALISTA"},
		{"03/03/2025", "08:00 12:00", "13:00 17:00", "08:00:00"},
	}

	h, err := r.Resolve(rows, nil)

	require.NoError(t, err)
	assert.Equal(t, "João da Silva", h.EmployeeName, "canonical spelling is reported")
	assert.Equal(t, "table", h.Strategy)
	assert.Equal(t, timesheet.Period{Month: time.March, Year: 2025}, h.Period)
}

func TestResolve_AnchoredPeriodLabel(t *testing.T) {
	list := allowlist.New([]string{"Ana Paula Ribeiro"})
	r := NewResolver(list, zap.NewNop())
	text := "EMPRESA EXEMPLO LTDA\nANA PAULA RIBEIRO - Período: 01/02/25 a 28/02/25\n"

	h, err := r.Resolve(nil, []string{text})

	require.NoError(t, err)
	assert.Equal(t, "Ana Paula Ribeiro", h.EmployeeName)
	assert.Equal(t, "anchored", h.Strategy)
	assert.Equal(t, "02/2025", h.Period.String())
}

func TestResolve_LabelAnchor(t *testing.T) {
	list := allowlist.New([]string{"Carlos Eduardo Lima"})
	r := NewResolver(list, zap.NewNop())

	h, err := r.Resolve(nil, []string{"Colaborador: Carlos Eduardo Lima\nMatrícula 123"})

	require.NoError(t, err)
	assert.Equal(t, "Carlos Eduardo Lima", h.EmployeeName)
}

func TestResolve_NameInsideLongerRun(t *testing.T) {
	list := allowlist.New([]string{"Pedro Alves"})
	r := NewResolver(list, zap.NewNop())

	h, err := r.Resolve(nil, []string{"CONTROLE PEDRO ALVES GERENTE REGIONAL\n01/03/2025"})

	require.NoError(t, err)
	assert.Equal(t, "Pedro Alves", h.EmployeeName)
}

func TestResolve_Mismatch(t *testing.T) {
	list := allowlist.New([]string{"Maria Souza"})
	r := NewResolver(list, zap.NewNop())

	h, err := r.Resolve(nil, []string{"JOSE PEREIRA SANTOS\n01/03/2025"})

	require.Error(t, err)
	assert.ErrorIs(t, err, timesheet.ErrAllowlistMismatch)
	assert.Equal(t, timesheet.Unresolved, h.EmployeeName)
	assert.Equal(t, "03/2025", h.Period.String())
}

func TestResolve_NothingNameLike(t *testing.T) {
	r := NewResolver(allowlist.New(nil), zap.NewNop())

	h, err := r.Resolve(nil, []string{"01/03/2025 08:00"})

	assert.ErrorIs(t, err, timesheet.ErrHeaderUnresolved)
	assert.Equal(t, timesheet.Unresolved, h.EmployeeName)
}

func TestResolve_EmptyAllowlistUsesStructuralCheck(t *testing.T) {
	r := NewResolver(allowlist.New(nil), zap.NewNop())

	h, err := r.Resolve(nil, []string{"FOLHA DE PONTO\nMARIANA COSTA - Período 01/03/2025"})

	require.NoError(t, err)
	assert.Equal(t, "MARIANA COSTA", h.EmployeeName)
}

func TestCapsRuns(t *testing.T) {
	runs := capsRuns("Nome: JOÃO DA SILVA 123 ABC\nD'ÁVILA SANTOS-NETO", 2)

	assert.Equal(t, []string{"JOÃO DA SILVA", "D'ÁVILA SANTOS-NETO"}, runs)
}

func TestWindows(t *testing.T) {
	assert.Equal(t, []string{"A B C", "A B", "B C"}, windows("A B C"))
	assert.Equal(t, []string{"SOLO"}, windows("SOLO"))
	assert.Nil(t, windows("  "))
}

func TestResolvePeriod_TableBeforeText(t *testing.T) {
	rows := [][]string{{"10/04/2024", "x"}}

	p := ResolvePeriod(rows, []string{"01/03/2025"})

	assert.Equal(t, timesheet.Period{Month: time.April, Year: 2024}, p)
	assert.True(t, ResolvePeriod(nil, []string{"none"}).IsZero())
}

package models

import "time"

// Run represents one batch execution in database
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Documents  int       `json:"documents"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
}

// Summary is a persisted monthly timesheet
type Summary struct {
	ID              int64     `json:"id"`
	RunID           string    `json:"run_id"`
	Employee        string    `json:"colaborador"`
	Period          string    `json:"periodo"`
	Expected        string    `json:"previsto"`
	Worked          string    `json:"realizado"`
	Balance         string    `json:"saldo"`
	ExpectedMinutes int       `json:"previsto_minutos"`
	WorkedMinutes   int       `json:"realizado_minutos"`
	BalanceMinutes  int       `json:"saldo_minutos"`
	Signed          bool      `json:"assinatura"`
	SourceFile      string    `json:"arquivo_origem"`
	ProcessedAt     time.Time `json:"processed_at"`
	Days            []Day     `json:"dias,omitempty"`
}

// Day is a persisted daily record of a summary
type Day struct {
	Date            string `json:"data"`
	DayType         string `json:"tipo_dia"`
	DurationCode    string `json:"codigo_previsto"`
	ExpectedMinutes int    `json:"previsto_minutos"`
	WorkedMinutes   int    `json:"realizado_minutos"`
	Note            string `json:"observacao,omitempty"`
}

// Failure is a document that produced no timesheet
type Failure struct {
	Path   string `json:"arquivo"`
	Reason string `json:"motivo"`
	Detail string `json:"detalhe,omitempty"`
}

// Stats aggregates stored summaries
type Stats struct {
	Total               int    `json:"total"`
	Signed              int    `json:"assinados"`
	Unsigned            int    `json:"nao_assinados"`
	TotalBalanceMinutes int    `json:"saldo_total_minutos"`
	TotalBalance        string `json:"saldo_total"`
}

// Employee is an allowlist entry in database
type Employee struct {
	ID        int64     `json:"id"`
	Name      string    `json:"nome"`
	Active    bool      `json:"ativo"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package assistant

import (
	"errors"

	"github.com/shopspring/decimal"

	"fintrax/internal/domain/goal"
	"fintrax/internal/domain/transaction"
)

// Action is what the classifier decided the user is asking for.
type Action string

const (
	ActionBalance           Action = "consulta_balance"
	ActionIncome            Action = "consulta_ingresos"
	ActionExpenses          Action = "consulta_gastos"
	ActionCategory          Action = "consulta_categoria"
	ActionListTransactions  Action = "listar_transacciones"
	ActionCreateTransaction Action = "crear_transaccion"
	ActionListGoals         Action = "listar_metas"
	ActionCreateGoal        Action = "crear_meta"
	ActionAnalysis          Action = "analisis_finanzas"
	ActionNone              Action = "none"
)

const (
	defaultListLimit  = 5
	maxListLimit      = 50
	categorySample    = 5
	analysisSample    = 10
	fallbackNoIntent  = "Lo siento, no entendí tu solicitud."
	fallbackNoCompose = "No pude generar una respuesta clara."
)

// ErrModel wraps failures talking to the language model.
var ErrModel = errors.New("assistant model failed")

// Request is one chat message from a user.
type Request struct {
	Message   string
	Owner     string
	OwnerName string
}

// Intent is the structured action extracted from a message. Amounts and
// limits arrive as free text and are parsed by the service.
type Intent struct {
	Action       Action
	Category     string
	Kind         string
	Amount       string
	Description  string
	GoalName     string
	GoalAmount   string
	Limit        string
	RequiresData bool
}

// Classification is either an Intent or a plain text answer.
type Classification struct {
	Intent *Intent
	Text   string
}

// Facts is what the service gathered from the ledger to answer an intent.
type Facts struct {
	Action             Action
	Income             *decimal.Decimal
	Expenses           *decimal.Decimal
	Balance            *decimal.Decimal
	Category           string
	CategoryTotal      *decimal.Decimal
	Transactions       []*transaction.Transaction
	Goals              []goal.View
	CreatedTransaction *transaction.Transaction
	CreatedGoal        *goal.View
}

// Reply is what the user gets back.
type Reply struct {
	Reply       string                   `json:"reply"`
	Created     bool                     `json:"created"`
	CreatedGoal bool                     `json:"created_goal"`
	Transaction *transaction.Transaction `json:"transaction,omitempty"`
	Goal        *goal.View               `json:"goal,omitempty"`
}
